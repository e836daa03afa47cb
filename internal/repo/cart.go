package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcore/marketplace/internal/models"
)

// CartRepo is the cart source the order engine consumes. It also carries the
// add/remove operations the HTTP layer exposes.
type CartRepo struct {
	DB *gorm.DB
}

func (r *CartRepo) ListCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CartRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// AddItem merges quantity into an existing line for the same product and
// variant, or creates a new one.
func (r *CartRepo) AddItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID)
		if item.VariantID != nil {
			q = q.Where("variant_id = ?", *item.VariantID)
		} else {
			q = q.Where("variant_id IS NULL")
		}
		res := q.Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(item).Error
	})
}

// RemoveItem drops quantity from a line, deleting the line when it reaches
// zero. Returns gorm.ErrRecordNotFound when the user has no such line.
func (r *CartRepo) RemoveItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.CartItem
		err := tx.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error
		if err != nil {
			return err
		}
		if item.Quantity > quantity {
			return tx.Model(&item).Update("quantity", gorm.Expr("quantity - ?", quantity)).Error
		}
		return tx.Delete(&item).Error
	})
}

// IsEmpty is a cheap pre-check; checkout re-reads the cart under its own
// transaction regardless.
func (r *CartRepo) IsEmpty(ctx context.Context, userID uuid.UUID) (bool, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}
