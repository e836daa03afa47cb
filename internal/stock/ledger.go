// Package stock owns every mutation of inventory counters. Nothing else in
// the codebase is allowed to read-modify-write a stock column.
package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcore/marketplace/internal/models"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// Item identifies one inventory position and a quantity. VariantID nil means
// the product-level counter.
type Item struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// Ledger performs atomic inventory updates against the handle it is given.
// Pass the transaction handle inside a unit of work so stock changes commit
// or roll back together with the rest of it.
type Ledger struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// TryReserve checks that every item can be satisfied from current stock.
// It mutates nothing; the authoritative guard is the conditional update in
// Decrement. Returns ErrInsufficientStock naming the first failing product.
func (l *Ledger) TryReserve(ctx context.Context, items []Item) error {
	for _, it := range items {
		available, err := l.available(ctx, it)
		if err != nil {
			return err
		}
		if available < it.Quantity {
			return fmt.Errorf("%w: product %s has %d, requested %d", ErrInsufficientStock, it.ProductID, available, it.Quantity)
		}
	}
	return nil
}

func (l *Ledger) available(ctx context.Context, it Item) (int, error) {
	var row struct{ Stock int }
	q := l.DB.WithContext(ctx)
	if it.VariantID != nil {
		q = q.Model(&models.ProductVariant{}).Where("id = ?", *it.VariantID)
	} else {
		q = q.Model(&models.Product{}).Where("id = ?", it.ProductID)
	}
	if err := q.Select("stock").Take(&row).Error; err != nil {
		return 0, err
	}
	return row.Stock, nil
}

// Decrement takes quantity out of stock as a single conditional update, so
// two concurrent checkouts can never both take the last unit. Zero rows
// affected means the stock guard failed.
func (l *Ledger) Decrement(ctx context.Context, item Item) error {
	res := l.scope(ctx, item).
		Where("stock >= ?", item.Quantity).
		Update("stock", gorm.Expr("stock - ?", item.Quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s", ErrInsufficientStock, item.ProductID)
	}
	return nil
}

// Increment restores stock, e.g. when a cancelled order returns its items.
func (l *Ledger) Increment(ctx context.Context, item Item) error {
	res := l.scope(ctx, item).
		Update("stock", gorm.Expr("stock + ?", item.Quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementSoldCount bumps the analytics counter alongside a sale.
func (l *Ledger) IncrementSoldCount(ctx context.Context, item Item) error {
	return l.scope(ctx, item).
		Update("sold_count", gorm.Expr("sold_count + ?", item.Quantity)).Error
}

// DecrementSoldCount undoes a sale on cancellation. Floors at zero.
func (l *Ledger) DecrementSoldCount(ctx context.Context, item Item) error {
	return l.scope(ctx, item).
		Where("sold_count >= ?", item.Quantity).
		Update("sold_count", gorm.Expr("sold_count - ?", item.Quantity)).Error
}

func (l *Ledger) scope(ctx context.Context, item Item) *gorm.DB {
	q := l.DB.WithContext(ctx)
	if item.VariantID != nil {
		return q.Model(&models.ProductVariant{}).Where("id = ?", *item.VariantID)
	}
	return q.Model(&models.Product{}).Where("id = ?", item.ProductID)
}
