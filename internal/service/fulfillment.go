package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/art_shop/internal/events"
	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/repo"
	"github.com/Skotchmaster/art_shop/internal/search"
	"github.com/Skotchmaster/art_shop/pkg/logging"
	"github.com/Skotchmaster/art_shop/pkg/metrics"
)

type CartNotifier interface {
	Refresh(ctx context.Context, owner string) error
}

type FulfillmentResult struct {
	OrderID           uuid.UUID
	AlreadyCompleted  bool
	SoldProductIDs    []uuid.UUID
	MissingProductIDs []uuid.UUID
}

type FulfillmentService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Index   search.Indexer
	Carts   CartNotifier
	Metrics *metrics.ServerMetrics
}

func NewFulfillmentService(r *repo.GormRepo, pub events.Publisher, idx search.Indexer, carts CartNotifier, m *metrics.ServerMetrics) *FulfillmentService {
	if pub == nil {
		pub = events.Nop{}
	}
	if idx == nil {
		idx = search.Nop{}
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &FulfillmentService{Repo: r, Events: pub, Index: idx, Carts: carts, Metrics: m}
}

// Fulfill completes the order paid through sessionID. orderRef is the order id
// echoed back by the gateway; it lets an order whose session was never
// attached still be found. Repeated calls for the same session are no-ops.
func (s *FulfillmentService) Fulfill(ctx context.Context, sessionID, orderRef string) (*FulfillmentResult, error) {
	l := logging.FromContext(ctx).With("svc", "fulfillment", "session_id", sessionID)

	order, err := s.findOrder(ctx, sessionID, orderRef)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			s.Metrics.Fulfillments.WithLabelValues("order_not_found").Inc()
		} else {
			s.Metrics.Fulfillments.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if order.Status != models.OrderPending {
		s.Metrics.Fulfillments.WithLabelValues("already_completed").Inc()
		return &FulfillmentResult{OrderID: order.ID, AlreadyCompleted: true}, nil
	}

	res, err := s.Repo.CompleteOrder(ctx, order.ID)
	if err != nil {
		s.Metrics.Fulfillments.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("complete order %s: %w", order.ID, err)
	}
	if !res.Applied {
		s.Metrics.Fulfillments.WithLabelValues("already_completed").Inc()
		return &FulfillmentResult{OrderID: order.ID, AlreadyCompleted: true}, nil
	}
	s.Metrics.Fulfillments.WithLabelValues("completed").Inc()

	for _, id := range res.Missing {
		l.Warn("fulfillment_missing_product", "order_id", order.ID, "product_id", id)
	}
	l.Info("order_completed", "order_id", order.ID, "sold", len(res.Sold), "missing", len(res.Missing))

	s.publish(ctx, res)
	if s.Carts != nil {
		if err := s.Carts.Refresh(ctx, res.Order.UserID.String()); err != nil {
			l.Warn("cart_refresh_error", "user_id", res.Order.UserID, "error", err)
		}
	}

	return &FulfillmentResult{
		OrderID:           order.ID,
		SoldProductIDs:    res.Sold,
		MissingProductIDs: res.Missing,
	}, nil
}

func (s *FulfillmentService) findOrder(ctx context.Context, sessionID, orderRef string) (*models.Order, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", ErrValidation)
	}

	order, err := s.Repo.GetOrderBySession(ctx, sessionID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	orderID, perr := uuid.Parse(orderRef)
	if perr != nil {
		return nil, fmt.Errorf("%w: session %s", ErrOrderNotFound, sessionID)
	}

	placeholder := PlaceholderSession(orderID)
	err = s.Repo.AttachSession(ctx, orderID, placeholder, sessionID, nil)
	switch {
	case err == nil:
		logging.FromContext(ctx).Info("session_attached_late", "order_id", orderID, "session_id", sessionID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// either unknown or attached concurrently; a second lookup decides
	default:
		return nil, err
	}

	order, err = s.Repo.GetOrderBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: session %s", ErrOrderNotFound, sessionID)
		}
		return nil, err
	}
	return order, nil
}

func (s *FulfillmentService) publish(ctx context.Context, res repo.CompleteResult) {
	l := logging.FromContext(ctx)
	now := time.Now().UTC()

	ev := events.OrderEvent{
		Type:       events.OrderCompleted,
		OrderID:    res.Order.ID,
		UserID:     res.Order.UserID,
		Total:      res.Order.Total,
		ProductIDs: res.Sold,
		OccurredAt: now,
	}
	if err := s.Events.PublishEvent(ctx, events.TopicOrders, res.Order.ID.String(), ev); err != nil {
		l.Warn("order_event_error", "order_id", res.Order.ID, "error", err)
	}

	for _, id := range res.Sold {
		pev := events.ProductEvent{
			Type:       events.ProductSold,
			ProductID:  id,
			Status:     string(models.ProductSold),
			OrderID:    res.Order.ID,
			OccurredAt: now,
		}
		if err := s.Events.PublishEvent(ctx, events.TopicProducts, id.String(), pev); err != nil {
			l.Warn("product_event_error", "product_id", id, "error", err)
		}

		if p, err := s.Repo.GetProduct(ctx, id); err == nil {
			if err := s.Index.IndexProduct(ctx, *p); err != nil {
				l.Warn("product_index_error", "product_id", id, "error", err)
			}
		}
	}
}
