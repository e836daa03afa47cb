package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/marketplace/internal/models"
)

func TestNewOrderNumber(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	n := newOrderNumber(now)

	assert.True(t, strings.HasPrefix(n, "ORD-20260314150926-"))
	assert.Len(t, n, len("ORD-20260314150926-")+8)

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		n := newOrderNumber(now)
		_, dup := seen[n]
		require.False(t, dup, "duplicate order number %s", n)
		seen[n] = struct{}{}
	}
}

func TestCheckoutRetriesOrderNumberCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	taken := "ORD-20260314150926-TAKEN123"
	require.NoError(t, env.DB.Create(&models.Order{
		OrderNumber: taken,
		UserID:      uuid.New(),
		Status:      models.OrderStatusPending,
	}).Error)

	// First generated number collides with the existing order.
	var calls int
	env.Svc.genNumber = func(now time.Time) string {
		calls++
		if calls == 1 {
			return taken
		}
		return newOrderNumber(now)
	}

	p := env.createProduct(t, "25.00", 10)
	env.addCartLine(t, userID, p, nil, 1)

	order, err := env.Svc.Checkout(ctx, userID, CheckoutRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.NotEqual(t, taken, order.OrderNumber)
	assert.Equal(t, 9, env.reloadProduct(t, p.ID).Stock)
	assert.Equal(t, 0, env.cartSize(t, userID))
}

func TestCheckoutGivesUpAfterRepeatedCollisions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	taken := "ORD-20260314150926-TAKEN456"
	require.NoError(t, env.DB.Create(&models.Order{
		OrderNumber: taken,
		UserID:      uuid.New(),
		Status:      models.OrderStatusPending,
	}).Error)

	env.Svc.genNumber = func(time.Time) string { return taken }

	p := env.createProduct(t, "25.00", 10)
	env.addCartLine(t, userID, p, nil, 1)

	_, err := env.Svc.Checkout(ctx, userID, CheckoutRequest{ShippingAddress: testAddress()})
	require.ErrorIs(t, err, ErrOrderNumberCollision)

	// Every attempt rolled back in full.
	assert.Equal(t, 10, env.reloadProduct(t, p.ID).Stock)
	assert.Equal(t, 1, env.cartSize(t, userID))
}

func TestListOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	p := env.createProduct(t, "25.00", 100)
	first := checkoutOrder(t, env, userID, p, 1)
	second := checkoutOrder(t, env, userID, p, 2)

	// Another user's order stays invisible.
	checkoutOrder(t, env, uuid.New(), p, 1)

	orders, err := env.Svc.ListOrders(ctx, userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	ids := []uuid.UUID{orders[0].ID, orders[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestGetOrderOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	p := env.createProduct(t, "25.00", 10)
	order := checkoutOrder(t, env, userID, p, 1)

	got, err := env.Svc.GetOrder(ctx, userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = env.Svc.GetOrder(ctx, uuid.New(), order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
}
