package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/art_shop/internal/service"
	"github.com/Skotchmaster/art_shop/internal/transport"
	"github.com/Skotchmaster/art_shop/internal/util"
	"github.com/Skotchmaster/art_shop/pkg/logging"
	middleware "github.com/Skotchmaster/art_shop/pkg/middleware/auth"
)

type OrderHTTP struct {
	Svc      *service.OrderService
	Currency string
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.mine")

	orders, err := h.Svc.ListMyOrders(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderList(orders, h.Currency))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list")

	admin, ok := adminFrom(c)
	if !ok {
		return respondError(l, "list_orders_error", service.ErrUnauthorized)
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListOrders(ctx, admin, c.QueryParam("status"), offset, limit)
	if err != nil {
		return respondError(l, "list_orders_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.NewOrderList(orders, h.Currency),
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.update_status")

	admin, ok := adminFrom(c)
	if !ok {
		return respondError(l, "order_status_error", service.ErrUnauthorized)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("order_status_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("order_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.UpdateStatus(ctx, admin, id, req.Status)
	if err != nil {
		return respondError(l, "order_status_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewOrderResponse(*order, h.Currency))
}
