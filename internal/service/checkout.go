package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/art_shop/internal/events"
	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/payment"
	"github.com/Skotchmaster/art_shop/internal/repo"
	"github.com/Skotchmaster/art_shop/pkg/logging"
	"github.com/Skotchmaster/art_shop/pkg/metrics"
)

// PlaceholderPrefix marks an order whose gateway session is not attached yet.
const PlaceholderPrefix = "pending:"

const (
	idempotencyWindow = 24 * time.Hour
	maxLineQuantity   = 1000
)

func PlaceholderSession(orderID uuid.UUID) string {
	return PlaceholderPrefix + orderID.String()
}

type CheckoutLine struct {
	ProductID uuid.UUID
	Quantity  int
}

type CheckoutRequest struct {
	Items          []CheckoutLine
	SiteURL        string
	IdempotencyKey string
}

type CheckoutResult struct {
	URL     *string
	OrderID uuid.UUID
	// Reused is true when an earlier order with the same idempotency key was returned.
	Reused bool
}

type CheckoutService struct {
	Repo     *repo.GormRepo
	Catalog  *CatalogService
	Gateway  payment.Gateway
	Events   events.Publisher
	Metrics  *metrics.ServerMetrics
	SiteURL  string
	Currency string
}

func NewCheckoutService(r *repo.GormRepo, catalog *CatalogService, gw payment.Gateway, pub events.Publisher, m *metrics.ServerMetrics, siteURL, currency string) *CheckoutService {
	if pub == nil {
		pub = events.Nop{}
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &CheckoutService{
		Repo:     r,
		Catalog:  catalog,
		Gateway:  gw,
		Events:   pub,
		Metrics:  m,
		SiteURL:  strings.TrimRight(siteURL, "/"),
		Currency: currency,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("svc", "checkout", "user_id", userID)

	res, err := s.checkout(ctx, userID, req)
	switch {
	case err == nil:
		s.Metrics.Checkouts.WithLabelValues("created").Inc()
	case errors.Is(err, ErrExternalService):
		s.Metrics.Checkouts.WithLabelValues("gateway_error").Inc()
		l.Error("checkout_error", "reason", "payment gateway failed", "error", err)
	default:
		s.Metrics.Checkouts.WithLabelValues("rejected").Inc()
	}
	return res, err
}

func (s *CheckoutService) checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}

	site, err := s.site(req.SiteURL)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		prev, err := s.Repo.FindByIdempotencyKey(ctx, userID, key, time.Now().Add(-idempotencyWindow))
		if err == nil {
			return s.reuse(ctx, prev, site)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, ln := range lines {
		ids = append(ids, ln.ProductID)
	}
	products, err := s.Catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]ProductView, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	orderID := uuid.New()
	var total int64
	items := make([]models.OrderItem, 0, len(lines))
	gwItems := make([]payment.LineItem, 0, len(lines))
	for _, ln := range lines {
		p, ok := byID[ln.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, ln.ProductID)
		}
		if p.Status == models.ProductSold {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, ln.ProductID)
		}

		sub, ok := mulAmount(p.Price, int64(ln.Quantity))
		if !ok || total > math.MaxInt64-sub {
			return nil, fmt.Errorf("%w: order amount too large", ErrValidation)
		}
		total += sub
		items = append(items, models.OrderItem{
			OrderID:   orderID,
			ProductID: p.ID,
			Title:     p.Title,
			Price:     p.Price,
			Quantity:  ln.Quantity,
		})
		gwItems = append(gwItems, payment.LineItem{
			ProductID:   p.ID,
			Name:        p.Title,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			UnitAmount:  p.Price,
			Quantity:    int64(ln.Quantity),
		})
	}

	placeholder := PlaceholderSession(orderID)
	order := &models.Order{
		ID:               orderID,
		UserID:           userID,
		Provider:         s.Gateway.Name(),
		PaymentSessionID: placeholder,
		Status:           models.OrderPending,
		Total:            total,
		Items:            items,
	}
	if key != "" {
		order.IdempotencyKey = &key
	}
	if _, err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	checkoutURL, err := s.openSession(ctx, order, gwItems, site)
	if err != nil {
		return nil, err
	}

	l := logging.FromContext(ctx)
	ev := events.OrderEvent{
		Type:       events.OrderCreated,
		OrderID:    orderID,
		UserID:     userID,
		Total:      total,
		ProductIDs: ids,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.Events.PublishEvent(ctx, events.TopicOrders, orderID.String(), ev); err != nil {
		l.Warn("order_event_error", "order_id", orderID, "error", err)
	}

	return &CheckoutResult{URL: checkoutURL, OrderID: orderID}, nil
}

// reuse answers a repeated Idempotency-Key. An order whose gateway session was
// never created gets a new session for its snapshotted lines.
func (s *CheckoutService) reuse(ctx context.Context, prev *models.Order, site string) (*CheckoutResult, error) {
	res := &CheckoutResult{URL: prev.CheckoutURL, OrderID: prev.ID, Reused: true}
	if prev.Status != models.OrderPending || !strings.HasPrefix(prev.PaymentSessionID, PlaceholderPrefix) {
		return res, nil
	}

	items := make([]payment.LineItem, 0, len(prev.Items))
	for _, it := range prev.Items {
		items = append(items, payment.LineItem{
			ProductID:  it.ProductID,
			Name:       it.Title,
			UnitAmount: it.Price,
			Quantity:   int64(it.Quantity),
		})
	}

	checkoutURL, err := s.openSession(ctx, prev, items, site)
	if err != nil {
		return nil, err
	}
	res.URL = checkoutURL
	return res, nil
}

// openSession creates the gateway session for a persisted order and attaches
// it in place of the placeholder. On gateway failure the order keeps its
// placeholder and never matches a webhook.
func (s *CheckoutService) openSession(ctx context.Context, order *models.Order, items []payment.LineItem, site string) (*string, error) {
	sess, err := s.Gateway.CreateSession(ctx, payment.SessionRequest{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Currency:   s.Currency,
		Items:      items,
		Total:      order.Total,
		SuccessURL: site + "/success?session_id=" + payment.SessionIDPlaceholder,
		CancelURL:  site + "/cart",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	if err := s.Repo.AttachSession(ctx, order.ID, order.PaymentSessionID, sess.ID, sess.URL); err != nil {
		logging.FromContext(ctx).Warn("attach_session_error", "order_id", order.ID, "session_id", sess.ID, "error", err)
	}
	return sess.URL, nil
}

func (s *CheckoutService) site(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return s.SiteURL, nil
	}
	u, err := url.Parse(requested)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: invalid site_url", ErrValidation)
	}
	return strings.TrimRight(requested, "/"), nil
}

// mergeLines rejects bad quantities and folds repeated products into one line,
// keeping first appearance order.
func mergeLines(in []CheckoutLine) ([]CheckoutLine, error) {
	out := make([]CheckoutLine, 0, len(in))
	pos := make(map[uuid.UUID]int, len(in))
	for _, ln := range in {
		if ln.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if ln.Quantity < 1 || ln.Quantity > maxLineQuantity {
			return nil, fmt.Errorf("%w: quantity must be between 1 and %d", ErrValidation, maxLineQuantity)
		}
		if i, ok := pos[ln.ProductID]; ok {
			out[i].Quantity += ln.Quantity
			if out[i].Quantity > maxLineQuantity {
				return nil, fmt.Errorf("%w: quantity must be between 1 and %d", ErrValidation, maxLineQuantity)
			}
			continue
		}
		pos[ln.ProductID] = len(out)
		out = append(out, ln)
	}
	return out, nil
}

func mulAmount(price, qty int64) (int64, bool) {
	if price < 0 || qty < 0 {
		return 0, false
	}
	if qty != 0 && price > math.MaxInt64/qty {
		return 0, false
	}
	return price * qty, true
}
