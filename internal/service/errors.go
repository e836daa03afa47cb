package service

import (
	"errors"
	"fmt"

	"github.com/shopcore/marketplace/internal/coupon"
	"github.com/shopcore/marketplace/internal/models"
	"github.com/shopcore/marketplace/internal/stock"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrProductUnavailable   = errors.New("product unavailable")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotCancellable  = errors.New("order can no longer be cancelled")
	ErrOrderNumberCollision = errors.New("order number collision")

	// ErrStorageFailure wraps any storage error that escaped the business
	// checks; the caller must assume nothing was committed.
	ErrStorageFailure = errors.New("storage failure")

	// Re-exported so callers only deal with this package's taxonomy.
	ErrInsufficientStock       = stock.ErrInsufficientStock
	ErrInvalidCouponCode       = coupon.ErrInvalidCode
	ErrCouponExpired           = coupon.ErrExpired
	ErrCouponUsageLimitReached = coupon.ErrUsageLimitReached
	ErrCouponMinimumNotMet     = coupon.ErrMinimumNotMet
)

// InvalidTransitionError reports an illegal order status move.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// IsValidationError reports whether err is a business-rule failure rather
// than a storage problem. Validation failures never leave partial state and
// are never worth retrying without new input.
func IsValidationError(err error) bool {
	var it *InvalidTransitionError
	switch {
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrProductUnavailable),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrOrderNotCancellable),
		errors.Is(err, ErrInvalidCouponCode),
		errors.Is(err, ErrCouponExpired),
		errors.Is(err, ErrCouponUsageLimitReached),
		errors.Is(err, ErrCouponMinimumNotMet),
		errors.As(err, &it):
		return true
	}
	return false
}

// wrapStorage keeps business errors as-is and tags everything else as a
// storage failure.
func wrapStorage(err error) error {
	if err == nil || IsValidationError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}
