// Package service contains the order fulfillment engine: the checkout
// transaction, the cancellation workflow and the status transitions that
// move an order through its lifecycle.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcore/marketplace/internal/logging"
	"github.com/shopcore/marketplace/internal/models"
	"github.com/shopcore/marketplace/internal/pricing"
	"github.com/shopcore/marketplace/internal/repo"
)

// EventPublisher receives order lifecycle events after a transaction has
// committed. Publishing is best-effort and never fails the operation.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

const orderEventsTopic = "order_events"

type OrderService struct {
	DB      *gorm.DB
	Pricing pricing.Config
	Events  EventPublisher

	orders *repo.OrderRepo
	// genNumber produces order numbers; swapped out in tests to force
	// collisions.
	genNumber func(time.Time) string
}

func New(db *gorm.DB, cfg pricing.Config, events EventPublisher) *OrderService {
	return &OrderService{
		DB:        db,
		Pricing:   cfg,
		Events:    events,
		orders:    &repo.OrderRepo{DB: db},
		genNumber: newOrderNumber,
	}
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx, userID, limit, offset)
	if err != nil {
		return nil, wrapStorage(err)
	}
	return orders, nil
}

func (s *OrderService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, orderEventsTopic, key, event); err != nil {
		logging.FromContext(ctx).Error("publish order event", "error", err, "key", key)
	}
}
