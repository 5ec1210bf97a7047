package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/art_shop/internal/models"
)

func TestOrders_AdminStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	a := f.product(t, "A", 10)

	res, err := f.checkout.Checkout(ctx, uuid.New(), CheckoutRequest{Items: []CheckoutLine{{ProductID: a.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = f.orders.UpdateStatus(ctx, admin, res.OrderID, string(models.OrderToShip))
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.orders.UpdateStatus(ctx, admin, res.OrderID, string(models.OrderPending))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.fulfillment.Fulfill(ctx, "cs_"+res.OrderID.String(), "")
	require.NoError(t, err)

	o, err := f.orders.UpdateStatus(ctx, admin, res.OrderID, string(models.OrderToShip))
	require.NoError(t, err)
	assert.Equal(t, models.OrderToShip, o.Status)

	o, err = f.orders.UpdateStatus(ctx, admin, res.OrderID, string(models.OrderToShip))
	require.NoError(t, err)
	assert.Equal(t, models.OrderToShip, o.Status)

	o, err = f.orders.UpdateStatus(ctx, admin, res.OrderID, string(models.OrderCompleted))
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, o.Status)

	_, err = f.orders.UpdateStatus(ctx, admin, uuid.New(), string(models.OrderToShip))
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrders_Listing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	buyer := uuid.New()
	a := f.product(t, "A", 10)
	b := f.product(t, "B", 20)

	_, err := f.checkout.Checkout(ctx, buyer, CheckoutRequest{Items: []CheckoutLine{{ProductID: a.ID, Quantity: 1}}})
	require.NoError(t, err)
	_, err = f.checkout.Checkout(ctx, uuid.New(), CheckoutRequest{Items: []CheckoutLine{{ProductID: b.ID, Quantity: 1}}})
	require.NoError(t, err)

	mine, err := f.orders.ListMyOrders(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Len(t, mine[0].Items, 1)
	assert.Equal(t, a.ID, mine[0].Items[0].ProductID)

	_, err = f.orders.ListMyOrders(ctx, uuid.Nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	total, all, err := f.orders.ListOrders(ctx, admin, string(models.OrderPending), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	total, _, err = f.orders.ListOrders(ctx, admin, string(models.OrderCompleted), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, _, err = f.orders.ListOrders(ctx, admin, "shipped", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)
}
