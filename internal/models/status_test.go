package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusReturned, true},
		{OrderStatusDelivered, OrderStatusCancelled, false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	t.Parallel()

	all := []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusRefunded, OrderStatusReturned,
	}
	terminal := []OrderStatus{OrderStatusCancelled, OrderStatusRefunded, OrderStatusReturned}

	for _, from := range terminal {
		assert.True(t, from.IsTerminal(), "%s should be terminal", from)
		for _, to := range all {
			if from == to {
				// Same-state transition stays a no-op success.
				assert.True(t, CanTransition(from, to))
				continue
			}
			assert.False(t, CanTransition(from, to), "%s -> %s must be illegal", from, to)
		}
	}
}

func TestSameStateTransitionAllowed(t *testing.T) {
	t.Parallel()

	for from := range map[OrderStatus]struct{}{
		OrderStatusPending: {}, OrderStatusShipped: {}, OrderStatusCancelled: {},
	} {
		assert.True(t, CanTransition(from, from))
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	t.Parallel()

	assert.False(t, CanTransition(OrderStatus("LOST"), OrderStatusPending))
	assert.False(t, CanTransition(OrderStatusPending, OrderStatus("LOST")))
	assert.False(t, OrderStatus("LOST").Valid())
}

func TestIsCancellable(t *testing.T) {
	t.Parallel()

	assert.True(t, OrderStatusPending.IsCancellable())
	assert.True(t, OrderStatusConfirmed.IsCancellable())
	assert.False(t, OrderStatusProcessing.IsCancellable())
	assert.False(t, OrderStatusShipped.IsCancellable())
	assert.False(t, OrderStatusCancelled.IsCancellable())
}
