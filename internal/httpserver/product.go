package httpserver

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snakeoil/internal/forms"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	authmw "github.com/Skotchmaster/snakeoil/internal/middleware/auth"
	"github.com/Skotchmaster/snakeoil/internal/models"
	"github.com/Skotchmaster/snakeoil/internal/service"
	"github.com/Skotchmaster/snakeoil/internal/transport"
	"github.com/Skotchmaster/snakeoil/internal/util"
)

type ProductAPI struct {
	Catalog *service.CatalogService
}

func (h *ProductAPI) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Catalog.List(ctx, page, size)
	if err != nil {
		l.Error("get_products_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list products")
	}

	l.Info("get_products_success")
	return c.JSON(http.StatusOK, listResponse(res))
}

func (h *ProductAPI) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Catalog.FullText(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		if fe, ok := forms.Fields(err); ok {
			l.Warn("search_products_error", "status", 400, "reason", "missing query", "error", err)
			return c.JSON(http.StatusBadRequest, transport.FieldErrorsResponse{Errors: fe})
		}
		l.Error("search_products_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot search products")
	}

	return c.JSON(http.StatusOK, listResponse(res))
}

func (h *ProductAPI) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := productID(c)
	if err != nil {
		l.Warn("get_product_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	prod, err := h.Catalog.Get(ctx, id)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusNotFound {
			l.Warn("get_product_error", "status", code, "error", err)
			return echo.NewHTTPError(code, "product not found")
		}
		l.Error("get_product_error", "status", code, "error", err)
		return echo.NewHTTPError(code, "cannot get product")
	}

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductAPI) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := productID(c)
	if err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	var req forms.ProductPatch
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Catalog.Patch(ctx, authmw.PrincipalFrom(c), id, req)
	if err != nil {
		return h.fail(c, l, "product_patch_error", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductAPI) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := productID(c)
	if err != nil {
		l.Warn("product_delete_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	if err := h.Catalog.Delete(ctx, authmw.PrincipalFrom(c), id); err != nil {
		return h.fail(c, l, "product_delete_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductAPI) fail(c echo.Context, l *slog.Logger, event string, err error) error {
	code := statusFor(err)
	switch code {
	case http.StatusBadRequest:
		fe, _ := forms.Fields(err)
		l.Warn(event, "status", code, "error", err)
		return c.JSON(code, transport.FieldErrorsResponse{Errors: fe})
	case http.StatusInternalServerError:
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(code, "internal error")
	}
	l.Warn(event, "status", code, "error", err)
	return echo.NewHTTPError(code, http.StatusText(code))
}

func productID(c echo.Context) (uint, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

func listResponse(p service.ProductPage) transport.ProductListResponse {
	items := p.Items
	if items == nil {
		items = []models.Product{}
	}
	return transport.ProductListResponse{Data: items, Meta: util.NewMeta(p.Page, p.Size, p.Total)}
}
