package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snakeoil/internal/forms"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	authmw "github.com/Skotchmaster/snakeoil/internal/middleware/auth"
	"github.com/Skotchmaster/snakeoil/internal/service"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	Pages        *Pages
	CookieSecure bool
}

func (h *AuthHTTP) LoginForm(c echo.Context) error {
	next := c.QueryParam("next")
	if authmw.PrincipalFrom(c).Authenticated() {
		return c.Redirect(http.StatusFound, authmw.SafeNext(next, "/"))
	}
	return c.Render(http.StatusOK, "login.html", LoginPage{
		Page: h.Pages.Base(c, "Log in"),
		Next: next,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "login")

	username := c.FormValue("username")
	next := c.FormValue("next")

	res, err := h.Svc.Login(ctx, username, c.FormValue("password"))
	if err != nil {
		page := LoginPage{Page: h.Pages.Base(c, "Log in"), Next: next, Username: username}
		switch {
		case errors.Is(err, service.ErrValidation):
			page.Errors, _ = forms.Fields(err)
			l.Info("login_error", "status", 200, "reason", "invalid_form")
		case errors.Is(err, service.ErrUnauthenticated):
			page.Error = service.MsgBadCredentials
			l.Warn("login_error", "status", 200, "reason", "bad_credentials")
		default:
			l.Error("login_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return c.Render(http.StatusOK, "login.html", page)
	}

	c.SetCookie(authmw.CreateCookie(authmw.AccessCookie, res.Token, "/", res.ExpiresAt, h.CookieSecure))
	l.Info("user logged in", "user_id", res.Principal.UserID)
	return c.Redirect(http.StatusFound, authmw.SafeNext(next, "/"))
}

// Logout revokes the session behind the cookie, if any, and always clears it.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "logout")

	if ck, err := c.Cookie(authmw.AccessCookie); err == nil && ck.Value != "" {
		if err := h.Svc.Logout(ctx, ck.Value); err != nil {
			l.Error("logout_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	c.SetCookie(authmw.DeleteCookie(authmw.AccessCookie, "/", h.CookieSecure))
	l.Info("user logged out")
	return c.Redirect(http.StatusFound, authmw.LoginPath)
}
