package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/payment"
)

func TestCheckout_TotalUsesStoredPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	a := f.product(t, "a", 500)
	b := f.product(t, "b", 1250)

	res, err := f.checkout.Checkout(ctx, userID, CheckoutRequest{Items: []CheckoutLine{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 1},
	}})
	require.NoError(t, err)
	require.NotNil(t, res.URL)

	order, err := f.repo.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, int64(2*500+1250), order.Total)
	assert.Equal(t, userID, order.UserID)
	assert.Equal(t, "cs_"+res.OrderID.String(), order.PaymentSessionID)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, int64(1), f.orderCount(t))

	require.Len(t, f.gw.requests, 1)
	req := f.gw.requests[0]
	assert.Equal(t, "https://shop.example/success?session_id="+payment.SessionIDPlaceholder, req.SuccessURL)
	assert.Equal(t, "https://shop.example/cart", req.CancelURL)
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, int64(2250), req.Total)
}

func TestCheckout_SiteURLOverride(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "a", 1)

	_, err := f.checkout.Checkout(context.Background(), uuid.New(), CheckoutRequest{
		Items:   []CheckoutLine{{ProductID: a.ID, Quantity: 1}},
		SiteURL: "https://preview.example/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://preview.example/cart", f.gw.requests[0].CancelURL)

	_, err = f.checkout.Checkout(context.Background(), uuid.New(), CheckoutRequest{
		Items:   []CheckoutLine{{ProductID: a.ID, Quantity: 1}},
		SiteURL: "javascript:alert(1)",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckout_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "a", 10)

	_, err := f.checkout.Checkout(ctx, uuid.Nil, CheckoutRequest{Items: []CheckoutLine{{ProductID: a.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.checkout.Checkout(ctx, uuid.New(), CheckoutRequest{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.checkout.Checkout(ctx, uuid.New(), CheckoutRequest{Items: []CheckoutLine{{ProductID: a.ID, Quantity: 0}}})
	assert.ErrorIs(t, err, ErrValidation)

	missing := uuid.New()
	_, err = f.checkout.Checkout(ctx, uuid.New(), CheckoutRequest{Items: []CheckoutLine{
		{ProductID: a.ID, Quantity: 1},
		{ProductID: missing, Quantity: 1},
	}})
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Contains(t, err.Error(), missing.String())

	assert.Zero(t, f.orderCount(t))
	assert.Empty(t, f.gw.requests)
}

func TestCheckout_SoldProductUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "a", 10)
	require.NoError(t, f.catalog.MarkSold(ctx, f.admin(t), a.ID))

	_, err := f.checkout.Checkout(ctx, uuid.New(), CheckoutRequest{Items: []CheckoutLine{{ProductID: a.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrProductUnavailable)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, f.orderCount(t))
}

func TestCheckout_RepeatedProductLinesMerge(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "a", 100)

	res, err := f.checkout.Checkout(context.Background(), uuid.New(), CheckoutRequest{Items: []CheckoutLine{
		{ProductID: a.ID, Quantity: 1},
		{ProductID: a.ID, Quantity: 2},
	}})
	require.NoError(t, err)

	order, err := f.repo.GetOrder(context.Background(), res.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, int64(300), order.Total)
}

func TestCheckout_GatewayFailureLeavesPlaceholderOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "a", 10)
	f.gw.createErr = errors.New("gateway down")

	_, err := f.checkout.Checkout(ctx, uuid.New(), CheckoutRequest{Items: []CheckoutLine{{ProductID: a.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrExternalService)

	var orders []models.Order
	require.NoError(t, f.repo.DB.Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, PlaceholderSession(orders[0].ID), orders[0].PaymentSessionID)
	assert.Equal(t, models.OrderPending, orders[0].Status)
}

func TestCheckout_IdempotencyKeyReusesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	a := f.product(t, "a", 10)
	req := CheckoutRequest{Items: []CheckoutLine{{ProductID: a.ID, Quantity: 1}}, IdempotencyKey: "k-1"}

	first, err := f.checkout.Checkout(ctx, userID, req)
	require.NoError(t, err)
	second, err := f.checkout.Checkout(ctx, userID, req)
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.True(t, second.Reused)
	require.NotNil(t, second.URL)
	assert.Equal(t, *first.URL, *second.URL)
	assert.Equal(t, int64(1), f.orderCount(t))

	_, err = f.checkout.Checkout(ctx, uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.orderCount(t))
}

func TestReconcile_FulfillsPaidStaleOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "a", 10)
	b := f.product(t, "b", 10)

	paid, err := f.checkout.Checkout(ctx, uuid.New(), CheckoutRequest{Items: []CheckoutLine{{ProductID: a.ID, Quantity: 1}}})
	require.NoError(t, err)
	unpaid, err := f.checkout.Checkout(ctx, uuid.New(), CheckoutRequest{Items: []CheckoutLine{{ProductID: b.ID, Quantity: 1}}})
	require.NoError(t, err)
	f.gw.paid["cs_"+paid.OrderID.String()] = true

	n, err := f.checkout.Reconcile(ctx, f.fulfillment, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	o, err := f.repo.GetOrder(ctx, paid.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, o.Status)

	o, err = f.repo.GetOrder(ctx, unpaid.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, o.Status)

	n, err = f.checkout.Reconcile(ctx, f.fulfillment, -time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCheckout_IdempotencyKeyRetriesFailedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	a := f.product(t, "a", 700)
	req := CheckoutRequest{Items: []CheckoutLine{{ProductID: a.ID, Quantity: 2}}, IdempotencyKey: "k-retry"}

	f.gw.createErr = errors.New("gateway down")
	_, err := f.checkout.Checkout(ctx, userID, req)
	require.ErrorIs(t, err, ErrExternalService)
	require.Len(t, f.gw.requests, 1)

	f.gw.createErr = nil
	res, err := f.checkout.Checkout(ctx, userID, req)
	require.NoError(t, err)
	assert.True(t, res.Reused)
	require.NotNil(t, res.URL)
	require.Len(t, f.gw.requests, 2)
	assert.Equal(t, res.OrderID, f.gw.requests[1].OrderID)
	assert.Equal(t, int64(1400), f.gw.requests[1].Total)
	assert.Equal(t, int64(1), f.orderCount(t))

	order, err := f.repo.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "cs_"+res.OrderID.String(), order.PaymentSessionID)

	again, err := f.checkout.Checkout(ctx, userID, req)
	require.NoError(t, err)
	assert.Equal(t, *res.URL, *again.URL)
	assert.Len(t, f.gw.requests, 2)
}

func TestCheckout_QuantityAndAmountBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	cheap := f.product(t, "cheap", 500)
	pricey := f.product(t, "pricey", math.MaxInt64/2)

	cases := map[string][]CheckoutLine{
		"quantity over limit":  {{ProductID: cheap.ID, Quantity: maxLineQuantity + 1}},
		"huge quantity":        {{ProductID: cheap.ID, Quantity: math.MaxInt64/500 + 2}},
		"merged over limit":    {{ProductID: cheap.ID, Quantity: 600}, {ProductID: cheap.ID, Quantity: 600}},
		"merged max ints":      {{ProductID: cheap.ID, Quantity: math.MaxInt}, {ProductID: cheap.ID, Quantity: math.MaxInt}},
		"line amount overflow": {{ProductID: pricey.ID, Quantity: 3}},
		"total overflow":       {{ProductID: pricey.ID, Quantity: 2}, {ProductID: cheap.ID, Quantity: 1000}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.checkout.Checkout(ctx, userID, CheckoutRequest{Items: lines})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, int64(0), f.orderCount(t))
	assert.Empty(t, f.gw.requests)

	res, err := f.checkout.Checkout(ctx, userID, CheckoutRequest{Items: []CheckoutLine{{ProductID: cheap.ID, Quantity: maxLineQuantity}}})
	require.NoError(t, err)
	order, err := f.repo.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(500*maxLineQuantity), order.Total)
}

func TestReconcile_AbandonedSessionsDoNotHidePaidOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "a", 10)

	for i := 0; i < reconcileBatch+5; i++ {
		_, err := f.repo.CreateOrder(ctx, &models.Order{
			UserID:           uuid.New(),
			Provider:         "fake",
			PaymentSessionID: fmt.Sprintf("cs_abandoned_%d", i),
			Status:           models.OrderPending,
			Total:            10,
		})
		require.NoError(t, err)
	}

	expired, err := f.repo.CreateOrder(ctx, &models.Order{
		UserID:           uuid.New(),
		Provider:         "fake",
		PaymentSessionID: "cs_expired",
		Status:           models.OrderPending,
		Total:            10,
		CreatedAt:        time.Now().Add(-reconcileHorizon - time.Hour).UTC(),
	})
	require.NoError(t, err)
	f.gw.paid["cs_expired"] = true

	paid, err := f.checkout.Checkout(ctx, uuid.New(), CheckoutRequest{Items: []CheckoutLine{{ProductID: a.ID, Quantity: 1}}})
	require.NoError(t, err)
	f.gw.paid["cs_"+paid.OrderID.String()] = true

	n, err := f.checkout.Reconcile(ctx, f.fulfillment, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	o, err := f.repo.GetOrder(ctx, paid.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, o.Status)

	o, err = f.repo.GetOrder(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, o.Status)
}
