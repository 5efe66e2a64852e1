package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snakeoil/internal/access"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	authmw "github.com/Skotchmaster/snakeoil/internal/middleware/auth"
	"github.com/Skotchmaster/snakeoil/internal/middleware/csrf"
)

type Deps struct {
	Shop     *ShopHTTP
	Cart     *CartHTTP
	Manage   *ManageHTTP
	Auth     *AuthHTTP
	Products *ProductAPI

	Session *authmw.SessionMiddleware
	// CSRF is nil when protection is disabled.
	CSRF *csrf.Config
	// Ready reports whether the backing stores answer.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Error("readiness_failed", "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	if d.CSRF != nil {
		e.Use(csrf.Middleware(*d.CSRF))
	}
	e.Use(d.Session.LoadPrincipal)

	login := d.Session.RequireLogin
	e.GET("/", d.Shop.Index, login)
	e.POST("/", d.Shop.Index, login)

	e.GET("/cart/", d.Cart.View, login)
	e.POST("/cart/add/", d.Cart.Add, d.Session.RequireAPIAuth)
	e.GET("/cart/clear/", d.Cart.Clear, login)

	manage := d.Session.RequirePermission(access.AddProduct)
	e.GET(managePath, d.Manage.List, manage)
	e.POST(managePath, d.Manage.Create, manage)

	e.GET(authmw.LoginPath, d.Auth.LoginForm)
	e.POST(authmw.LoginPath, d.Auth.Login)
	e.POST("/logout/", d.Auth.Logout)

	v1 := e.Group("/api/v1")
	v1.GET("/cart", d.Cart.APIView, d.Session.RequireAPIAuth)

	products := v1.Group("/products")
	products.GET("", d.Products.List)
	products.GET("/search", d.Products.Search)
	products.GET("/:id", d.Products.Get)
	products.PATCH("/:id", d.Products.Patch, d.Session.RequireAPIPermission(access.ChangeProduct))
	products.DELETE("/:id", d.Products.Delete, d.Session.RequireAPIPermission(access.DeleteProduct))
}
