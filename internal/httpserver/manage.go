package httpserver

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snakeoil/internal/forms"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	authmw "github.com/Skotchmaster/snakeoil/internal/middleware/auth"
	"github.com/Skotchmaster/snakeoil/internal/service"
)

const managePath = "/manage/products/"

type ManageHTTP struct {
	Catalog *service.CatalogService
	Pages   *Pages
}

func (h *ManageHTTP) List(c echo.Context) error {
	return h.render(c, http.StatusOK, url.Values{}, nil)
}

// Create redirects back to the list on success and re-renders the form with
// its errors otherwise.
func (h *ManageHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manage.create")

	values, err := c.FormParams()
	if err != nil {
		l.Warn("create_product_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	in, err := forms.ParseProduct(values)
	if err == nil {
		_, err = h.Catalog.Create(ctx, authmw.PrincipalFrom(c), in)
	}
	if err != nil {
		if fe, ok := forms.Fields(err); ok {
			l.Info("create_product_invalid", "errors", fe)
			return h.render(c, http.StatusOK, values, fe)
		}
		code := statusFor(err)
		l.Error("create_product_error", "status", code, "error", err)
		return echo.NewHTTPError(code, http.StatusText(code))
	}

	l.Info("product created", "sku", in.Code)
	return c.Redirect(http.StatusFound, managePath)
}

func (h *ManageHTTP) render(c echo.Context, code int, form url.Values, fe forms.FieldErrors) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "manage.list")

	products, err := h.Catalog.ListForManagement(ctx, authmw.PrincipalFrom(c))
	if err != nil {
		code := statusFor(err)
		l.Error("manage_list_error", "status", code, "error", err)
		return echo.NewHTTPError(code, http.StatusText(code))
	}

	return c.Render(code, "manage.html", ManagePage{
		Page:     h.Pages.Base(c, "Manage products"),
		Products: products,
		Form:     form,
		Errors:   fe,
	})
}
