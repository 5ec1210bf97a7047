package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/art_shop/internal/service"
	"github.com/Skotchmaster/art_shop/pkg/logging"
)

const maxWebhookBody = 1 << 16

type WebhookHTTP struct {
	Svc *service.WebhookService
}

func (h *WebhookHTTP) Receive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "webhook.payment")

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		l.Warn("webhook_error", "status", 400, "reason", "cannot read body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}
	if len(payload) > maxWebhookBody {
		l.Warn("webhook_error", "status", 413, "reason", "body too large")
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "body too large")
	}

	var signature string
	if hdr := h.Svc.Gateway.SignatureHeader(); hdr != "" {
		signature = c.Request().Header.Get(hdr)
	}

	out, err := h.Svc.Handle(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, service.ErrSignatureVerification) || errors.Is(err, service.ErrValidation) {
			return respondError(l, "webhook_error", err)
		}
		// a 5xx makes the gateway deliver the event again
		l.Error("webhook_error", "status", 500, "reason", "fulfillment failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "fulfillment failed")
	}

	l.Info("webhook_success", "event_id", out.EventID, "type", out.Type, "duplicate", out.Duplicate, "handled", out.Handled)
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
