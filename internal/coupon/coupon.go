// Package coupon validates discount codes and turns them into a concrete
// discount amount for an order subtotal.
package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopcore/marketplace/internal/models"
)

var (
	ErrInvalidCode       = errors.New("invalid coupon code")
	ErrExpired           = errors.New("coupon expired")
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	ErrMinimumNotMet     = errors.New("coupon minimum order amount not met")
)

// Discount is the outcome of applying a coupon to a subtotal.
type Discount struct {
	Coupon       *models.Coupon
	Amount       decimal.Decimal
	FreeShipping bool
}

// Applier validates coupons against the handle it is given, so validation
// and usage accounting can share the checkout transaction.
type Applier struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Applier {
	return &Applier{DB: db}
}

// Apply validates code for userID against subtotal and returns the discount
// to feed into pricing. Any rule violation is a hard error; checkout never
// proceeds silently without the requested discount.
func (a *Applier) Apply(ctx context.Context, code string, userID uuid.UUID, subtotal decimal.Decimal) (*Discount, error) {
	var cpn models.Coupon
	err := a.DB.WithContext(ctx).
		Where("code = ? AND status = ?", code, models.CouponStatusActive).
		First(&cpn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if cpn.StartsAt != nil && now.Before(*cpn.StartsAt) {
		return nil, fmt.Errorf("%w: %q is not valid yet", ErrExpired, code)
	}
	if cpn.EndsAt != nil && now.After(*cpn.EndsAt) {
		return nil, fmt.Errorf("%w: %q", ErrExpired, code)
	}

	if subtotal.LessThan(cpn.MinOrderAmount) {
		return nil, fmt.Errorf("%w: order minimum is %s", ErrMinimumNotMet, cpn.MinOrderAmount.StringFixed(2))
	}

	if cpn.MaxUses > 0 && cpn.UsedCount >= cpn.MaxUses {
		return nil, fmt.Errorf("%w: %q", ErrUsageLimitReached, code)
	}
	if cpn.MaxUsesPerUser > 0 {
		var used int64
		err := a.DB.WithContext(ctx).Model(&models.Order{}).
			Where("user_id = ? AND coupon_code = ?", userID, code).
			Count(&used).Error
		if err != nil {
			return nil, err
		}
		if used >= int64(cpn.MaxUsesPerUser) {
			return nil, fmt.Errorf("%w: %q used %d times already", ErrUsageLimitReached, code, used)
		}
	}

	return &Discount{
		Coupon:       &cpn,
		Amount:       amountFor(&cpn, subtotal),
		FreeShipping: cpn.FreeShipping,
	}, nil
}

func amountFor(cpn *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	switch cpn.Type {
	case models.DiscountTypePercentage:
		return subtotal.Mul(cpn.Value).Div(decimal.NewFromInt(100)).Round(2)
	default:
		return cpn.Value.Round(2)
	}
}

// CommitUsage records one use of the coupon. The conditional update guards
// the global limit even when two checkouts race on the last use.
func (a *Applier) CommitUsage(ctx context.Context, cpn *models.Coupon) error {
	q := a.DB.WithContext(ctx).Model(&models.Coupon{}).Where("id = ?", cpn.ID)
	if cpn.MaxUses > 0 {
		q = q.Where("used_count < ?", cpn.MaxUses)
	}
	res := q.Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %q", ErrUsageLimitReached, cpn.Code)
	}
	return nil
}
