package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/payment"
	"github.com/Skotchmaster/art_shop/internal/repo"
	"github.com/Skotchmaster/art_shop/internal/storage"
	"github.com/Skotchmaster/art_shop/pkg/db"
)

type fakeGateway struct {
	mu        sync.Mutex
	requests  []payment.SessionRequest
	createErr error
	paid      map[string]bool
	event     *payment.Event
	parseErr  error
	header    string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{paid: map[string]bool{}, header: "Stripe-Signature"}
}

func (g *fakeGateway) Name() string            { return "fake" }
func (g *fakeGateway) SignatureHeader() string { return g.header }

func (g *fakeGateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	url := "https://pay.example/" + req.OrderID.String()
	return &payment.Session{ID: "cs_" + req.OrderID.String(), URL: &url}, nil
}

func (g *fakeGateway) ParseEvent(_ []byte, _ string) (*payment.Event, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	ev := *g.event
	return &ev, nil
}

func (g *fakeGateway) SessionPaid(_ context.Context, sessionID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paid[sessionID], nil
}

type published struct {
	topic string
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic, key, event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.topic == topic {
			n++
		}
	}
	return n
}

type fakeMedia struct{}

func (fakeMedia) ResolveURL(_ context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "broken/") {
		return "", errors.New("no such object")
	}
	return "https://cdn.example/" + ref, nil
}

func (fakeMedia) PresignUpload(_ context.Context, contentType string) (storage.Upload, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return storage.Upload{}, storage.ErrUnsupportedContentType
	}
	return storage.Upload{URL: "https://s3.example/put", Method: "PUT", Ref: "uploads/x"}, nil
}

type fakeCarts struct {
	mu      sync.Mutex
	touched []string
}

func (c *fakeCarts) Refresh(_ context.Context, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched = append(c.touched, owner)
	return nil
}

type fixture struct {
	repo        *repo.GormRepo
	gw          *fakeGateway
	pub         *recordingPublisher
	carts       *fakeCarts
	access      *AccessService
	catalog     *CatalogService
	checkout    *CheckoutService
	fulfillment *FulfillmentService
	webhooks    *WebhookService
	orders      *OrderService
	auth        *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, models.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := repo.New(gdb)
	f := &fixture{
		repo:  r,
		gw:    newFakeGateway(),
		pub:   &recordingPublisher{},
		carts: &fakeCarts{},
	}
	f.access = NewAccessService(r)
	f.catalog = NewCatalogService(r, fakeMedia{}, f.pub, nil)
	f.checkout = NewCheckoutService(r, f.catalog, f.gw, f.pub, nil, "https://shop.example", "usd")
	f.fulfillment = NewFulfillmentService(r, f.pub, nil, f.carts, nil)
	f.webhooks = NewWebhookService(r, f.gw, f.fulfillment, nil)
	f.orders = NewOrderService(r)
	f.auth = NewAuthService(r, f.access, []byte("secret"), time.Hour)
	return f
}

func (f *fixture) admin(t *testing.T) AdminCapability {
	t.Helper()
	userID := uuid.New()
	_, err := f.repo.EnsureAdmin(context.Background(), userID)
	require.NoError(t, err)
	admin, err := f.access.RequireAdmin(context.Background(), userID)
	require.NoError(t, err)
	return admin
}

func (f *fixture) product(t *testing.T, title string, price int64) *ProductView {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), f.admin(t), ProductInput{
		Title:       title,
		Description: title + " on canvas",
		Price:       &price,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.repo.DB.Model(&models.Order{}).Count(&n).Error)
	return n
}

func int64p(v int64) *int64 { return &v }
