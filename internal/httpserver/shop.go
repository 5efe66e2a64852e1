package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snakeoil/internal/forms"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	"github.com/Skotchmaster/snakeoil/internal/models"
	"github.com/Skotchmaster/snakeoil/internal/service"
)

type ShopHTTP struct {
	Catalog *service.CatalogService
	Pages   *Pages
}

// Index shows every product by name until a search is submitted, either by
// POST or by a GET that carries sort_by.
func (h *ShopHTTP) Index(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.index")

	page := ShopPage{
		Page:        h.Pages.Base(c, "Shop"),
		Sort:        models.SortNameAsc,
		SortChoices: models.SortChoices,
	}

	submitted := c.Request().Method == http.MethodPost || c.QueryParams().Has("sort_by")
	if !submitted {
		products, err := h.Catalog.DefaultView(ctx)
		if err != nil {
			l.Error("shop_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		page.Products = products
		return c.Render(http.StatusOK, "shop.html", page)
	}

	values, err := c.FormParams()
	if err != nil {
		l.Warn("shop_search_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	page.Query = values.Get("search_string")
	page.Sort = models.SortKey(values.Get("sort_by"))

	in, err := forms.ParseSearch(values)
	if err == nil {
		page.Products, err = h.Catalog.Search(ctx, in)
	}
	if err != nil {
		fe, ok := forms.Fields(err)
		if !ok {
			l.Error("shop_search_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		l.Info("shop_search_invalid", "errors", fe)
		page.Errors = fe
		page.Products = nil
	}

	return c.Render(http.StatusOK, "shop.html", page)
}
