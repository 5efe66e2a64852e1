package authmw

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snakeoil/internal/access"
	"github.com/Skotchmaster/snakeoil/internal/logging"
)

const (
	AccessCookie = "accessToken"
	LoginPath    = "/login/"

	principalKey = "principal"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (access.Principal, error)
}

type SessionMiddleware struct {
	Auth         Authenticator
	Mode         access.DenialMode
	CookieSecure bool
}

func NewSessionMiddleware(auth Authenticator, mode access.DenialMode, secure bool) *SessionMiddleware {
	return &SessionMiddleware{Auth: auth, Mode: mode, CookieSecure: secure}
}

// LoadPrincipal resolves the access cookie for every request. Requests without
// a valid cookie continue as anonymous.
func (m *SessionMiddleware) LoadPrincipal(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := access.Anonymous()

		if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
			ctx := c.Request().Context()
			resolved, err := m.Auth.Authenticate(ctx, ck.Value)
			if err != nil {
				logging.FromContext(ctx).Info("access_token_rejected", "error", err)
				c.SetCookie(DeleteCookie(AccessCookie, "/", m.CookieSecure))
			} else {
				p = resolved
				l := logging.FromContext(ctx).With("user_id", p.UserID)
				c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
			}
		}

		c.Set(principalKey, p)
		return next(c)
	}
}

func PrincipalFrom(c echo.Context) access.Principal {
	if p, ok := c.Get(principalKey).(access.Principal); ok {
		return p
	}
	return access.Anonymous()
}

// RequireLogin sends anonymous callers to the login page.
func (m *SessionMiddleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !PrincipalFrom(c).Authenticated() {
			return redirectToLogin(c)
		}
		return next(c)
	}
}

// RequirePermission gates a page on permission. What an authenticated caller
// without it sees depends on the configured denial mode.
func (m *SessionMiddleware) RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			switch access.Decide(p, permission, m.Mode) {
			case access.Allow:
				return next(c)
			case access.Forbid:
				logging.FromContext(c.Request().Context()).Warn("access_denied", "status", http.StatusForbidden, "permission", permission, "principal", p.String())
				return echo.NewHTTPError(http.StatusForbidden, "You do not have permission to access this page.")
			default:
				if p.Authenticated() {
					logging.FromContext(c.Request().Context()).Warn("access_denied", "status", http.StatusFound, "permission", permission, "principal", p.String())
				}
				return redirectToLogin(c)
			}
		}
	}
}

func (m *SessionMiddleware) RequireAPIAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !PrincipalFrom(c).Authenticated() {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return next(c)
	}
}

func (m *SessionMiddleware) RequireAPIPermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if !p.Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !access.Allowed(p, permission) {
				return echo.NewHTTPError(http.StatusForbidden, permission+" permission required")
			}
			return next(c)
		}
	}
}

func redirectToLogin(c echo.Context) error {
	return c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(c.Request().URL.RequestURI()))
}

// SafeNext returns next when it is a local path and fallback otherwise.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return fallback
	}
	return next
}

func CreateCookie(name, value, path string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
