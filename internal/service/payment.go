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

// ConfirmPayment records the payment collaborator's verdict on the pending
// payment of an order. Success also moves the order PENDING -> CONFIRMED.
// The engine never verifies the external transaction itself.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID uuid.UUID, externalTxID string, ok bool) (*models.Order, error) {
	var order *models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := &repo.OrderRepo{DB: tx}

		o, err := orders.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}

		var pending *models.Payment
		for i := range o.Payments {
			if o.Payments[i].Status == models.PaymentStatusPending {
				pending = &o.Payments[i]
				break
			}
		}
		if pending == nil {
			// A confirmed or failed payment was already recorded; a retry
			// gets its own payment row.
			pending = &models.Payment{
				OrderID: o.ID,
				Amount:  o.Total,
				Method:  "card",
			}
		}

		now := time.Now().UTC()
		status := models.PaymentStatusFailed
		if ok {
			status = models.PaymentStatusCompleted
			if o.Status.IsTerminal() {
				// A charge settling after the order was closed has nothing
				// to pay for; record it straight to REFUNDED.
				status = models.PaymentStatusRefunded
				pending.RefundedAt = &now
				pending.RefundReason = "order closed before settlement"
			}
		}
		pending.Status = status
		pending.TransactionID = externalTxID

		if pending.ID == uuid.Nil {
			if err := tx.Create(pending).Error; err != nil {
				return err
			}
			o.Payments = append(o.Payments, *pending)
		} else {
			updates := map[string]any{
				"status":         status,
				"transaction_id": externalTxID,
				"updated_at":     now,
			}
			if pending.RefundedAt != nil {
				updates["refunded_at"] = pending.RefundedAt
				updates["refund_reason"] = pending.RefundReason
			}
			if err := tx.Model(&models.Payment{}).Where("id = ?", pending.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		if ok && models.CanTransition(o.Status, models.OrderStatusConfirmed) && o.Status != models.OrderStatusConfirmed {
			o.Status = models.OrderStatusConfirmed
			if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).
				Update("status", models.OrderStatusConfirmed).Error; err != nil {
				return err
			}
		}

		order = o
		return nil
	})
	if txErr != nil {
		return nil, wrapStorage(txErr)
	}

	s.publish(ctx, order.ID.String(), map[string]any{
		"type":     "payment_recorded",
		"order_id": order.ID,
		"success":  ok,
	})
	return order, nil
}
