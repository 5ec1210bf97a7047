package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/art_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/art_shop/pkg/middleware/csrf"
)

const (
	WebhookPath       = "/api/v1/webhooks/payment"
	LegacyWebhookPath = "/stripe-webhook"
)

type Deps struct {
	ProductHandler  *ProductHTTP
	CheckoutHandler *CheckoutHTTP
	WebhookHandler  *WebhookHTTP
	OrderHandler    *OrderHTTP
	CartHandler     *CartHTTP
	AuthHandler     *AuthHTTP
	AdminHandler    *AdminHTTP

	Auth *middleware.Authenticator
	// CSRF is nil when cookie CSRF protection is turned off.
	CSRF *csrf.Config

	Ready   func(ctx context.Context) error
	Metrics http.Handler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	e.POST(LegacyWebhookPath, d.WebhookHandler.Receive)

	api := e.Group("/api/v1")
	if d.CSRF != nil {
		cfg := *d.CSRF
		cfg.SkipPaths = append(cfg.SkipPaths, WebhookPath)
		api.Use(csrf.Middleware(cfg))
	}
	api.POST("/webhooks/payment", d.WebhookHandler.Receive)

	api.POST("/auth/register", d.AuthHandler.Register)
	api.POST("/auth/login", d.AuthHandler.Login)
	api.POST("/auth/logout", d.AuthHandler.Logout)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.ProductHandler.SearchProducts)
	products.POST("/batch", d.ProductHandler.GetBatch)
	products.GET("/:id", d.ProductHandler.GetProduct)

	authed := d.Auth.RequireAuth
	api.POST("/checkout", d.CheckoutHandler.Checkout, authed)
	api.GET("/orders", d.OrderHandler.MyOrders, authed)
	api.GET("/cart", d.CartHandler.Get, authed)
	api.POST("/cart", d.CartHandler.Add, authed)
	api.DELETE("/cart", d.CartHandler.Clear, authed)
	api.DELETE("/cart/items/:productId", d.CartHandler.Remove, authed)
	api.GET("/cart/events", d.CartHandler.Events, authed)

	api.GET("/admin/me", d.AdminHandler.Me, d.Auth.Authenticate)

	admin := api.Group("/admin", d.Auth.RequireAuth, d.AdminHandler.RequireAdmin)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PUT("/products/:id", d.ProductHandler.UpdateProduct)
	admin.POST("/products/:id/sold", d.ProductHandler.MarkSold)
	admin.POST("/uploads", d.ProductHandler.UploadURL)
	admin.GET("/orders", d.OrderHandler.ListOrders)
	admin.PATCH("/orders/:id", d.OrderHandler.UpdateStatus)
}
