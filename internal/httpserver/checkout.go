package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/art_shop/internal/service"
	"github.com/Skotchmaster/art_shop/internal/transport"
	"github.com/Skotchmaster/art_shop/pkg/logging"
	middleware "github.com/Skotchmaster/art_shop/pkg/middleware/auth"
)

const headerIdempotencyKey = "Idempotency-Key"

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.create")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	lines := make([]service.CheckoutLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, service.CheckoutLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	res, err := h.Svc.Checkout(ctx, middleware.UserID(c), service.CheckoutRequest{
		Items:          lines,
		SiteURL:        req.SiteURL,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return respondError(l, "checkout_error", err)
	}

	l.Info("checkout_success", "order_id", res.OrderID, "reused", res.Reused)
	return c.JSON(http.StatusOK, transport.CheckoutResponse{URL: res.URL, OrderID: res.OrderID})
}
