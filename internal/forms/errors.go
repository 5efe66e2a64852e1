// Package forms validates raw request input into typed values. Every parser
// collects all field problems before returning, so a form can be re-rendered
// with every message at once.
package forms

import (
	"errors"
	"sort"
	"strings"
)

// ErrInvalid is matched by every *ValidationError.
var ErrInvalid = errors.New("validation")

const (
	MsgRequired    = "This field is required."
	MsgWholeNum    = "Enter a whole number."
	MsgNumber      = "Enter a number."
	MsgPositive    = "Ensure this value is greater than or equal to 1."
	MsgNonNegative = "Ensure this value is greater than or equal to 0."
	MsgMaxQuantity = "Ensure this value is less than or equal to 2147483647."
	MsgMinQuantity = "Ensure this value is greater than or equal to -2147483647."
	MsgLineLimit   = "A cart line cannot hold more than 2147483647 items."
)

type FieldErrors map[string][]string

func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f FieldErrors) Has(field string) bool {
	return len(f[field]) > 0
}

// Err returns nil when no field failed.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, k := range fields {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Single builds a one-field error.
func Single(field, msg string) error {
	fe := FieldErrors{}
	fe.Add(field, msg)
	return fe.Err()
}

// Fields extracts the per-field messages from err, if any.
func Fields(err error) (FieldErrors, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	return nil, false
}
