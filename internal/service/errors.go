package service

import (
	"errors"

	"github.com/Skotchmaster/snakeoil/internal/forms"
)

var (
	// ErrValidation matches every *forms.ValidationError.
	ErrValidation       = forms.ErrInvalid
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrConflict         = errors.New("conflict")
)
