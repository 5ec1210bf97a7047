package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/payment"
	"github.com/Skotchmaster/art_shop/internal/repo"
	"github.com/Skotchmaster/art_shop/pkg/logging"
	"github.com/Skotchmaster/art_shop/pkg/metrics"
)

type WebhookOutcome struct {
	EventID   string
	Type      string
	Verified  bool
	Duplicate bool
	// Handled is true when the event triggered fulfillment.
	Handled bool
	Result  *FulfillmentResult
}

type WebhookService struct {
	Repo    *repo.GormRepo
	Gateway payment.Gateway
	Fulfill *FulfillmentService
	Metrics *metrics.ServerMetrics
}

func NewWebhookService(r *repo.GormRepo, gw payment.Gateway, f *FulfillmentService, m *metrics.ServerMetrics) *WebhookService {
	if m == nil {
		m = metrics.Nop()
	}
	return &WebhookService{Repo: r, Gateway: gw, Fulfill: f, Metrics: m}
}

// Handle verifies and dispatches one gateway notification. Errors wrapping
// ErrSignatureVerification or ErrValidation must not be retried by the
// gateway; any other error should be.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) (*WebhookOutcome, error) {
	l := logging.FromContext(ctx).With("svc", "webhook", "provider", s.Gateway.Name())

	if s.Gateway.SignatureHeader() != "" && signature == "" {
		return nil, fmt.Errorf("%w: missing %s header", ErrSignatureVerification, s.Gateway.SignatureHeader())
	}

	ev, err := s.Gateway.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return nil, fmt.Errorf("%w: %v", ErrSignatureVerification, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.Metrics.WebhookEvents.WithLabelValues(ev.Type, strconv.FormatBool(ev.Verified)).Inc()
	l = l.With("event_id", ev.ID, "type", ev.Type)
	if !ev.Verified {
		l.Warn("webhook_unverified", "insecure", true, "reason", "no webhook secret configured")
	}

	out := &WebhookOutcome{EventID: ev.ID, Type: ev.Type, Verified: ev.Verified}

	if ev.ID != "" {
		done, err := s.Repo.WebhookProcessed(ctx, ev.ID)
		if err != nil {
			return nil, fmt.Errorf("check webhook event: %w", err)
		}
		if done {
			out.Duplicate = true
			l.Info("webhook_duplicate")
			return out, nil
		}
	}

	if ev.Kind == payment.EventCheckoutCompleted {
		res, err := s.Fulfill.Fulfill(ctx, ev.SessionID, ev.OrderRef)
		switch {
		case err == nil:
			out.Handled = true
			out.Result = res
		case errors.Is(err, ErrOrderNotFound):
			// retrying will not make the order appear
			l.Warn("webhook_order_not_found", "session_id", ev.SessionID, "order_ref", ev.OrderRef, "error", err)
		default:
			return nil, err
		}
	}

	if ev.ID != "" {
		rec := &models.WebhookEvent{
			EventID:     ev.ID,
			Provider:    s.Gateway.Name(),
			Type:        ev.Type,
			Verified:    ev.Verified,
			ProcessedAt: time.Now().UTC(),
		}
		if err := s.Repo.RecordWebhook(ctx, rec); err != nil {
			l.Warn("webhook_record_error", "error", err)
		}
	}
	return out, nil
}
