package httpserver

import (
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snakeoil/internal/access"
	"github.com/Skotchmaster/snakeoil/internal/forms"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	authmw "github.com/Skotchmaster/snakeoil/internal/middleware/auth"
	"github.com/Skotchmaster/snakeoil/internal/middleware/csrf"
	"github.com/Skotchmaster/snakeoil/internal/models"
	"github.com/Skotchmaster/snakeoil/internal/service"
)

// Page is the data every template gets through the layout.
type Page struct {
	Title       string
	Principal   access.Principal
	CSRFToken   string
	CartSummary string
	CanManage   bool
}

type ShopPage struct {
	Page
	Query       string
	Sort        models.SortKey
	SortChoices any
	Products    []models.Product
	Errors      forms.FieldErrors
}

type CartPage struct {
	Page
	Cart service.CartView
}

type ManagePage struct {
	Page
	Products []models.Product
	Form     url.Values
	Errors   forms.FieldErrors
}

type LoginPage struct {
	Page
	Next     string
	Username string
	Error    string
	Errors   forms.FieldErrors
}

type ErrorPage struct {
	Page
	Message string
}

// Pages builds the layout data shared by the HTML handlers.
type Pages struct {
	Cart *service.CartService
}

func (p *Pages) Base(c echo.Context, title string) Page {
	pr := authmw.PrincipalFrom(c)
	page := Page{
		Title:     title,
		Principal: pr,
		CanManage: access.Allowed(pr, access.AddProduct),
	}
	if tok, ok := c.Get(csrf.ContextKey).(string); ok {
		page.CSRFToken = tok
	}

	if pr.Authenticated() && p != nil && p.Cart != nil {
		ctx := c.Request().Context()
		sum, err := p.Cart.Summary(ctx, pr)
		if err != nil {
			logging.FromContext(ctx).Warn("cart_summary_error", "error", err)
		} else {
			page.CartSummary = sum.String()
		}
	}
	return page
}
