package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/art_shop/internal/events"
	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/payment"
)

func TestWebhook_MissingSignatureHeader(t *testing.T) {
	f := newFixture(t)
	_, err := f.webhooks.Handle(context.Background(), []byte(`{}`), "")
	assert.ErrorIs(t, err, ErrSignatureVerification)
}

func TestWebhook_BadSignatureAndMalformed(t *testing.T) {
	f := newFixture(t)

	f.gw.parseErr = payment.ErrInvalidSignature
	_, err := f.webhooks.Handle(context.Background(), []byte(`{}`), "t=1,v1=x")
	assert.ErrorIs(t, err, ErrSignatureVerification)

	f.gw.parseErr = payment.ErrMalformedEvent
	_, err = f.webhooks.Handle(context.Background(), []byte(`{`), "t=1,v1=x")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWebhook_DeliveredTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 500)

	res, err := f.checkout.Checkout(ctx, uuid.New(), CheckoutRequest{Items: []CheckoutLine{{ProductID: a.ID, Quantity: 1}}})
	require.NoError(t, err)

	f.gw.event = &payment.Event{
		ID:        "evt_1",
		Type:      "checkout.session.completed",
		Kind:      payment.EventCheckoutCompleted,
		SessionID: "cs_" + res.OrderID.String(),
		OrderRef:  res.OrderID.String(),
		Verified:  true,
	}

	first, err := f.webhooks.Handle(ctx, []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.True(t, first.Handled)
	assert.False(t, first.Duplicate)
	ordersAfterFirst := f.pub.count(events.TopicOrders)

	second, err := f.webhooks.Handle(ctx, []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.False(t, second.Handled)
	assert.Equal(t, ordersAfterFirst, f.pub.count(events.TopicOrders))

	// a different event id for the same session still changes nothing
	f.gw.event.ID = "evt_2"
	third, err := f.webhooks.Handle(ctx, []byte(`{}`), "sig")
	require.NoError(t, err)
	require.NotNil(t, third.Result)
	assert.True(t, third.Result.AlreadyCompleted)

	p, err := f.repo.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductSold, p.Status)
	o, err := f.repo.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, o.Status)
}

func TestWebhook_OtherEventsAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.gw.event = &payment.Event{ID: "evt_x", Type: "payment_intent.created", Kind: payment.EventOther, Verified: true}

	out, err := f.webhooks.Handle(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.False(t, out.Handled)
	assert.Zero(t, f.orderCount(t))
}

func TestWebhook_UnknownOrderIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.gw.event = &payment.Event{ID: "evt_y", Type: "checkout.session.completed", Kind: payment.EventCheckoutCompleted, SessionID: "cs_nope"}

	out, err := f.webhooks.Handle(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.False(t, out.Handled)
	assert.False(t, out.Verified)

	done, err := f.repo.WebhookProcessed(context.Background(), "evt_y")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestWebhook_NoHeaderGatewayParsesBody(t *testing.T) {
	f := newFixture(t)
	f.gw.header = ""
	f.gw.event = &payment.Event{ID: "tx:pending", Type: "pending", Kind: payment.EventOther, Verified: true}

	_, err := f.webhooks.Handle(context.Background(), []byte(`{}`), "")
	require.NoError(t, err)
}

func TestWebhook_StoreErrorIsRetryable(t *testing.T) {
	f := newFixture(t)
	f.gw.event = &payment.Event{ID: "evt_z", Type: "checkout.session.completed", Kind: payment.EventCheckoutCompleted, SessionID: "cs_1"}
	require.NoError(t, f.repo.DB.Migrator().DropTable(&models.Order{}))

	_, err := f.webhooks.Handle(context.Background(), []byte(`{}`), "sig")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrOrderNotFound))
	assert.False(t, errors.Is(err, ErrSignatureVerification))
	assert.False(t, errors.Is(err, ErrValidation))
}
