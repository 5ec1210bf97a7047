package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/art_shop/internal/cart"
	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/service"
	"github.com/Skotchmaster/art_shop/internal/transport"
	"github.com/Skotchmaster/art_shop/pkg/logging"
	middleware "github.com/Skotchmaster/art_shop/pkg/middleware/auth"
)

// CartHTTP serves the server mirrored cart of the authenticated user.
type CartHTTP struct {
	Hub     *cart.Hub
	Catalog *service.CatalogService
}

func owner(c echo.Context) string {
	return middleware.UserID(c).String()
}

func cartBody(items []cart.Item) transport.CartResponse {
	if items == nil {
		items = []cart.Item{}
	}
	return transport.CartResponse{Items: items}
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	items, err := h.Hub.For(owner(c)).Read(ctx)
	if err != nil {
		return respondError(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, cartBody(items))
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.CartAddRequest
	if err := c.Bind(&req); err != nil || req.ProductID == uuid.Nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return respondError(l, "add_to_cart_error", err)
	}
	if p.Status == models.ProductSold {
		return respondError(l, "add_to_cart_error", fmt.Errorf("%w: %s", service.ErrProductUnavailable, p.ID))
	}

	items, err := h.Hub.For(owner(c)).Add(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return respondError(l, "add_to_cart_error", err)
	}
	return c.JSON(http.StatusOK, cartBody(items))
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	id, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		l.Warn("remove_from_cart_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	items, err := h.Hub.For(owner(c)).Remove(ctx, id)
	if err != nil {
		return respondError(l, "remove_from_cart_error", err)
	}
	return c.JSON(http.StatusOK, cartBody(items))
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Hub.For(owner(c)).Clear(ctx); err != nil {
		return respondError(l, "clear_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Events streams cart snapshots as server sent events until the client goes away.
func (h *CartHTTP) Events(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.events")

	ch, cancel, err := h.Hub.Subscribe(ctx, owner(c))
	if err != nil {
		return respondError(l, "cart_events_error", err)
	}
	defer cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(cartBody(snap))
			if err != nil {
				l.Error("cart_events_error", "reason", "encode snapshot", "error", err)
				return nil
			}
			if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
