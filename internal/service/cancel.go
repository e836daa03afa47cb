package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcore/marketplace/internal/models"
	"github.com/shopcore/marketplace/internal/repo"
	"github.com/shopcore/marketplace/internal/stock"
)

// CancelOrder unwinds a not-yet-processed order: stock and sold counts go
// back, the order turns CANCELLED and a completed payment is marked
// REFUNDED. Everything commits as one unit; a failure anywhere rolls back
// the stock restoration too. Moving actual funds is the payment
// collaborator's job, this only keeps the books.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.Order, error) {
	var order *models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := &repo.OrderRepo{DB: tx}

		o, err := orders.GetUserOrder(ctx, userID, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		if !o.Status.IsCancellable() {
			return fmt.Errorf("%w: status is %s", ErrOrderNotCancellable, o.Status)
		}
		if !models.CanTransition(o.Status, models.OrderStatusCancelled) {
			return &InvalidTransitionError{From: o.Status, To: models.OrderStatusCancelled}
		}

		if err := restockItems(ctx, tx, o.Items); err != nil {
			return err
		}

		now := time.Now().UTC()
		o.Status = models.OrderStatusCancelled
		o.CancelledAt = &now
		o.CancelReason = reason
		if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).Updates(map[string]any{
			"status":        o.Status,
			"cancelled_at":  o.CancelledAt,
			"cancel_reason": o.CancelReason,
		}).Error; err != nil {
			return err
		}

		if err := refundCompletedPayments(tx, o.Payments, now, reason); err != nil {
			return err
		}

		order = o
		return nil
	})
	if txErr != nil {
		return nil, wrapStorage(txErr)
	}

	s.publish(ctx, order.ID.String(), map[string]any{
		"type":     "order_cancelled",
		"order_id": order.ID,
		"user_id":  userID,
		"reason":   reason,
	})
	return order, nil
}

// refundCompletedPayments marks every settled payment REFUNDED as part of a
// cancellation. PENDING and FAILED payments are left alone.
func refundCompletedPayments(tx *gorm.DB, payments []models.Payment, now time.Time, reason string) error {
	for i := range payments {
		p := &payments[i]
		if p.Status != models.PaymentStatusCompleted {
			continue
		}
		p.Status = models.PaymentStatusRefunded
		p.RefundedAt = &now
		p.RefundReason = reason
		if err := tx.Model(&models.Payment{}).Where("id = ?", p.ID).Updates(map[string]any{
			"status":        p.Status,
			"refunded_at":   p.RefundedAt,
			"refund_reason": p.RefundReason,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

// restockItems is the compensating half of checkout's stock decrement.
func restockItems(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	ledger := stock.New(tx)
	for _, it := range items {
		item := stock.Item{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: it.Quantity}
		if err := ledger.Increment(ctx, item); err != nil {
			return err
		}
		if err := ledger.DecrementSoldCount(ctx, item); err != nil {
			return err
		}
	}
	return nil
}
