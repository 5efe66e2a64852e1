// Package access holds the permission model of the shop: the principal that
// every core operation receives and the predicate used to gate privileged
// screens.
package access

import (
	"fmt"
	"slices"
	"strings"
)

// Permission codenames. Staff get every verb on every noun, shop managers get
// AddProduct only.
const (
	AddProduct    = "add_product"
	ChangeProduct = "change_product"
	DeleteProduct = "delete_product"
	ViewProduct   = "view_product"
)

var (
	Nouns = []string{"product", "shoppingcart", "shoppingcartitem"}
	Verbs = []string{"add", "change", "delete", "view"}
)

// AllPermissions returns every codename known to the shop.
func AllPermissions() []string {
	out := make([]string, 0, len(Nouns)*len(Verbs))
	for _, noun := range Nouns {
		for _, verb := range Verbs {
			out = append(out, verb+"_"+noun)
		}
	}
	return out
}

// Principal is the authenticated caller. The zero value is anonymous.
type Principal struct {
	UserID      uint
	Username    string
	IsStaff     bool
	Permissions []string
}

func Anonymous() Principal { return Principal{} }

func (p Principal) Authenticated() bool { return p.UserID != 0 }

func (p Principal) Has(permission string) bool {
	return slices.Contains(p.Permissions, permission)
}

func (p Principal) String() string {
	if !p.Authenticated() {
		return "anonymous"
	}
	return fmt.Sprintf("%s(%d)", p.Username, p.UserID)
}

// Allowed reports whether p may use the capability guarded by permission.
func Allowed(p Principal, permission string) bool {
	return p.Authenticated() && p.Has(permission)
}

// Decision is what the HTTP layer does with a guarded request.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	Forbid
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case Forbid:
		return "forbid"
	default:
		return "unknown"
	}
}

// DenialMode selects how an authenticated but unprivileged caller is turned away.
type DenialMode string

const (
	DenyWithRedirect DenialMode = "redirect"
	DenyWithForbid   DenialMode = "forbidden"
)

func ParseDenialMode(v string) (DenialMode, error) {
	switch DenialMode(strings.ToLower(strings.TrimSpace(v))) {
	case DenyWithRedirect, "":
		return DenyWithRedirect, nil
	case DenyWithForbid:
		return DenyWithForbid, nil
	default:
		return "", fmt.Errorf("unknown access denied mode %q", v)
	}
}

// Decide maps the predicate onto a request outcome. Anonymous callers always go
// to the login page; the mode only matters once the caller is known.
func Decide(p Principal, permission string, mode DenialMode) Decision {
	if !p.Authenticated() {
		return RedirectToLogin
	}
	if Allowed(p, permission) {
		return Allow
	}
	if mode == DenyWithForbid {
		return Forbid
	}
	return RedirectToLogin
}
