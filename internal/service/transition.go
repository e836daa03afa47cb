package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcore/marketplace/internal/models"
	"github.com/shopcore/marketplace/internal/repo"
)

// TransitionMetadata carries optional context for a status change, e.g. a
// cancellation reason or the carrier tracking number on shipment.
type TransitionMetadata struct {
	Reason         string `json:"reason,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

// TransitionStatus is the administrative path through the same state
// machine. The state machine only validates; the timestamp side effects of
// entering a state happen here. A transition to the current status is a
// no-op success and leaves timestamps alone.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID uuid.UUID, newStatus models.OrderStatus, meta TransitionMetadata) (*models.Order, error) {
	var (
		order *models.Order
		noop  bool
	)

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := &repo.OrderRepo{DB: tx}

		o, err := orders.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		if !models.CanTransition(o.Status, newStatus) {
			return &InvalidTransitionError{From: o.Status, To: newStatus}
		}
		if o.Status == newStatus {
			order = o
			noop = true
			return nil
		}

		// Cancellation has compensating effects, so even the admin path
		// restores stock before flipping the status.
		if newStatus == models.OrderStatusCancelled {
			if err := restockItems(ctx, tx, o.Items); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		updates := map[string]any{"status": newStatus}
		switch newStatus {
		case models.OrderStatusShipped:
			o.ShippedAt = &now
			updates["shipped_at"] = &now
			if meta.TrackingNumber != "" {
				o.TrackingNumber = meta.TrackingNumber
				updates["tracking_number"] = meta.TrackingNumber
			}
		case models.OrderStatusDelivered:
			o.DeliveredAt = &now
			updates["delivered_at"] = &now
		case models.OrderStatusCancelled:
			o.CancelledAt = &now
			o.CancelReason = meta.Reason
			updates["cancelled_at"] = &now
			updates["cancel_reason"] = meta.Reason
			if err := refundCompletedPayments(tx, o.Payments, now, meta.Reason); err != nil {
				return err
			}
		}
		o.Status = newStatus

		if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).Updates(updates).Error; err != nil {
			return err
		}

		order = o
		return nil
	})
	if txErr != nil {
		return nil, wrapStorage(txErr)
	}
	if noop {
		return order, nil
	}

	s.publish(ctx, order.ID.String(), map[string]any{
		"type":     "order_status_changed",
		"order_id": order.ID,
		"status":   order.Status,
	})
	return order, nil
}
