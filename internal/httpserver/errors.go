package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snakeoil/internal/logging"
	"github.com/Skotchmaster/snakeoil/internal/service"
	"github.com/Skotchmaster/snakeoil/internal/transport"
)

// statusFor maps service sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func wantsJSON(c echo.Context) bool {
	path := c.Request().URL.Path
	if strings.HasPrefix(path, "/api/") || path == "/cart/add/" {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// ErrorHandler answers API callers with JSON and browsers with the error page.
func ErrorHandler(pages *Pages) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		} else {
			logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", code, "error", err)
		}

		var werr error
		switch {
		case c.Request().Method == http.MethodHead:
			werr = c.NoContent(code)
		case wantsJSON(c):
			werr = c.JSON(code, transport.ErrorResponse{Error: msg})
		default:
			werr = c.Render(code, "error.html", ErrorPage{
				Page:    pages.Base(c, http.StatusText(code)),
				Message: msg,
			})
			if werr != nil && !c.Response().Committed {
				werr = c.String(code, msg)
			}
		}
		if werr != nil {
			logging.FromContext(c.Request().Context()).Error("error_handler_failed", "error", werr)
		}
	}
}
