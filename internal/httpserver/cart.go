package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snakeoil/internal/forms"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	authmw "github.com/Skotchmaster/snakeoil/internal/middleware/auth"
	"github.com/Skotchmaster/snakeoil/internal/service"
	"github.com/Skotchmaster/snakeoil/internal/transport"
)

type CartHTTP struct {
	Svc   *service.CartService
	Pages *Pages
}

func (h *CartHTTP) View(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.view")

	view, err := h.Svc.View(ctx, authmw.PrincipalFrom(c))
	if err != nil {
		l.Error("cart_view_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.Render(http.StatusOK, "cart.html", CartPage{Page: h.Pages.Base(c, "Cart"), Cart: view})
}

// Add accepts the product id as a form field or as a JSON body {"pk": 3}.
func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	values, err := requestValues(c)
	if err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "invalid body"})
	}

	in, err := forms.ParseAddToCart(values)
	if err != nil {
		fe, _ := forms.Fields(err)
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.FieldErrorsResponse{Errors: fe})
	}

	res, err := h.Svc.AddToCart(ctx, authmw.PrincipalFrom(c), in)
	if err != nil {
		code := statusFor(err)
		switch code {
		case http.StatusBadRequest:
			fe, _ := forms.Fields(err)
			l.Warn("add_to_cart_error", "status", code, "error", err)
			return c.JSON(code, transport.FieldErrorsResponse{Errors: fe})
		case http.StatusNotFound:
			l.Warn("add_to_cart_error", "status", code, "error", err)
			return c.JSON(code, transport.ErrorResponse{Error: fmt.Sprintf("product %d not found", in.ProductID)})
		case http.StatusUnauthorized:
			l.Warn("add_to_cart_error", "status", code, "error", err)
			return c.JSON(code, transport.ErrorResponse{Error: "unauthorized"})
		}
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.ErrorResponse{Error: "internal error"})
	}

	l.Info("item added to cart", "product_id", res.Product.ID, "line_quantity", res.LineQuantity)
	return c.JSON(http.StatusOK, transport.AddToCartResponse{
		Product:       res.Product,
		NumItemsAdded: res.NumAdded,
		CartSummary:   res.Summary.String(),
	})
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.Clear(ctx, authmw.PrincipalFrom(c)); err != nil {
		l.Error("clear_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("cart cleared")
	return c.Redirect(http.StatusFound, "/cart/")
}

// APIView returns the caller's cart as JSON.
func (h *CartHTTP) APIView(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "api.cart.view")

	view, err := h.Svc.View(ctx, authmw.PrincipalFrom(c))
	if err != nil {
		code := statusFor(err)
		if code == http.StatusUnauthorized {
			l.Warn("get_cart_error", "status", code, "error", err)
			return c.JSON(code, transport.ErrorResponse{Error: "unauthorized"})
		}
		l.Error("get_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.ErrorResponse{Error: "internal error"})
	}

	resp := transport.CartResponse{
		Lines:      make([]transport.CartLine, 0, len(view.Lines)),
		NumItems:   view.Summary.NumItems,
		TotalPrice: view.Summary.TotalPrice,
		Summary:    view.Summary.String(),
	}
	for _, ln := range view.Lines {
		resp.Lines = append(resp.Lines, transport.CartLine{
			Product:   ln.Product,
			NumItems:  ln.NumItems,
			LineTotal: ln.LineTotal,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// requestValues flattens a JSON object body into form values so both encodings
// go through the same parser.
func requestValues(c echo.Context) (url.Values, error) {
	req := c.Request()
	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return c.FormParams()
	}

	var body map[string]any
	dec := json.NewDecoder(req.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode json body: %w", err)
	}

	values := url.Values{}
	for k, v := range body {
		switch t := v.(type) {
		case nil:
		case string:
			values.Set(k, t)
		case json.Number:
			values.Set(k, t.String())
		default:
			values.Set(k, fmt.Sprint(t))
		}
	}
	return values, nil
}
