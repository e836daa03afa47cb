package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/marketplace/internal/models"
)

func setStatus(t *testing.T, env *testEnv, orderID uuid.UUID, status models.OrderStatus) {
	t.Helper()
	require.NoError(t, env.DB.Model(&models.Order{}).Where("id = ?", orderID).
		Update("status", status).Error)
}

func TestTransitionShippedStampsTimestamp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	p := env.createProduct(t, "25.00", 10)
	order := checkoutOrder(t, env, userID, p, 1)
	setStatus(t, env, order.ID, models.OrderStatusProcessing)

	got, err := env.Svc.TransitionStatus(ctx, order.ID, models.OrderStatusShipped, TransitionMetadata{TrackingNumber: "1Z999AA10123456784"})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusShipped, got.Status)
	require.NotNil(t, got.ShippedAt)
	assert.Equal(t, "1Z999AA10123456784", got.TrackingNumber)
	assert.Nil(t, got.DeliveredAt)
	assert.Contains(t, env.Events.types(), "order_status_changed")
}

func TestTransitionDeliveredStampsTimestamp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	p := env.createProduct(t, "25.00", 10)
	order := checkoutOrder(t, env, userID, p, 1)
	setStatus(t, env, order.ID, models.OrderStatusShipped)

	got, err := env.Svc.TransitionStatus(ctx, order.ID, models.OrderStatusDelivered, TransitionMetadata{})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusDelivered, got.Status)
	require.NotNil(t, got.DeliveredAt)
}

func TestTransitionSameStateIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	p := env.createProduct(t, "25.00", 10)
	order := checkoutOrder(t, env, userID, p, 1)

	got, err := env.Svc.TransitionStatus(ctx, order.ID, models.OrderStatusPending, TransitionMetadata{})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Nil(t, got.ShippedAt)
	assert.Nil(t, got.DeliveredAt)
	assert.Nil(t, got.CancelledAt)
	assert.NotContains(t, env.Events.types(), "order_status_changed")
}

func TestTransitionIllegalMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	p := env.createProduct(t, "25.00", 10)
	order := checkoutOrder(t, env, userID, p, 1)

	_, err := env.Svc.TransitionStatus(ctx, order.ID, models.OrderStatusDelivered, TransitionMetadata{})
	require.Error(t, err)

	var it *InvalidTransitionError
	require.ErrorAs(t, err, &it)
	assert.Equal(t, models.OrderStatusPending, it.From)
	assert.Equal(t, models.OrderStatusDelivered, it.To)

	// Status unchanged.
	got, err := env.Svc.GetOrder(ctx, userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
}

func TestAdminCancelRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	p := env.createProduct(t, "25.00", 10)
	order := checkoutOrder(t, env, userID, p, 4)
	require.Equal(t, 6, env.reloadProduct(t, p.ID).Stock)

	got, err := env.Svc.TransitionStatus(ctx, order.ID, models.OrderStatusCancelled, TransitionMetadata{Reason: "fraud review"})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
	assert.Equal(t, "fraud review", got.CancelReason)
	assert.Equal(t, 10, env.reloadProduct(t, p.ID).Stock)
}

func TestAdminCancelRefundsSettledPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	p := env.createProduct(t, "25.00", 10)
	order := checkoutOrder(t, env, userID, p, 1)

	confirmed, err := env.Svc.ConfirmPayment(ctx, order.ID, "txn_settled", true)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusConfirmed, confirmed.Status)

	got, err := env.Svc.TransitionStatus(ctx, order.ID, models.OrderStatusCancelled, TransitionMetadata{Reason: "chargeback"})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, models.PaymentStatusRefunded, got.Payments[0].Status)
	assert.NotNil(t, got.Payments[0].RefundedAt)
	assert.Equal(t, "chargeback", got.Payments[0].RefundReason)
}

func TestTransitionUnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Svc.TransitionStatus(context.Background(), uuid.New(), models.OrderStatusConfirmed, TransitionMetadata{})
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestTransitionFromTerminalFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	p := env.createProduct(t, "25.00", 10)
	order := checkoutOrder(t, env, userID, p, 1)
	setStatus(t, env, order.ID, models.OrderStatusCancelled)

	var it *InvalidTransitionError
	_, err := env.Svc.TransitionStatus(ctx, order.ID, models.OrderStatusConfirmed, TransitionMetadata{})
	require.ErrorAs(t, err, &it)
}
