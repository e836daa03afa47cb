package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopcore/marketplace/internal/coupon"
	"github.com/shopcore/marketplace/internal/models"
	"github.com/shopcore/marketplace/internal/pricing"
	"github.com/shopcore/marketplace/internal/repo"
	"github.com/shopcore/marketplace/internal/stock"
)

type CheckoutRequest struct {
	ShippingAddress models.Address  `json:"shipping_address"`
	BillingAddress  *models.Address `json:"billing_address,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// orderNumberAttempts bounds the retry loop on order number collisions.
const orderNumberAttempts = 3

// Checkout turns the user's cart into a priced, stock-committed order. The
// whole flow runs in one transaction: a failure at any step leaves the cart,
// the stock counters and the order tables untouched.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order, err = s.checkoutOnce(ctx, userID, req)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Somebody grabbed the same order number. No business rule was
			// violated, so regenerate and go again.
			continue
		}
		break
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: gave up after %d attempts", ErrOrderNumberCollision, orderNumberAttempts)
	}
	if err != nil {
		return nil, wrapStorage(err)
	}

	s.publish(ctx, order.ID.String(), map[string]any{
		"type":         "order_created",
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"total":        order.Total,
	})
	return order, nil
}

func (s *OrderService) checkoutOnce(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*models.Order, error) {
	var order *models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		carts := &repo.CartRepo{DB: tx}
		products := &repo.ProductRepo{DB: tx}
		ledger := stock.New(tx)

		lines, err := carts.ListCartLines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		var (
			priceLines []pricing.Line
			stockItems []stock.Item
			items      []models.OrderItem
		)
		for _, line := range lines {
			item, err := s.buildOrderItem(ctx, products, line)
			if err != nil {
				return err
			}
			items = append(items, *item)
			priceLines = append(priceLines, pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
			stockItems = append(stockItems, stock.Item{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Quantity:  line.Quantity,
			})
		}

		if err := ledger.TryReserve(ctx, stockItems); err != nil {
			return err
		}

		subtotal := decimal.Zero
		for _, pl := range priceLines {
			subtotal = subtotal.Add(pricing.LineTotal(pl.UnitPrice, pl.Quantity))
		}

		discount := decimal.Zero
		freeShipping := false
		var applied *coupon.Discount
		if req.CouponCode != "" {
			applier := coupon.New(tx)
			applied, err = applier.Apply(ctx, req.CouponCode, userID, subtotal)
			if err != nil {
				return err
			}
			discount = applied.Amount
			freeShipping = applied.FreeShipping
		}

		totals := pricing.Calculate(priceLines, s.Pricing, discount, freeShipping)

		billing := req.ShippingAddress
		if req.BillingAddress != nil {
			billing = *req.BillingAddress
		}
		method := req.PaymentMethod
		if method == "" {
			method = "card"
		}

		order = &models.Order{
			OrderNumber:     s.genNumber(time.Now()),
			UserID:          userID,
			Status:          models.OrderStatusPending,
			Subtotal:        totals.Subtotal,
			Tax:             totals.Tax,
			ShippingCost:    totals.ShippingCost,
			Discount:        totals.Discount,
			Total:           totals.Total,
			CouponCode:      req.CouponCode,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  billing,
			Notes:           req.Notes,
			Items:           items,
			Payments: []models.Payment{{
				Amount: totals.Total,
				Method: method,
				Status: models.PaymentStatusPending,
			}},
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		// Same transaction as the order insert: the conditional update is
		// the authoritative stock guard, TryReserve above only fails fast.
		for _, it := range stockItems {
			if err := ledger.Decrement(ctx, it); err != nil {
				return err
			}
			if err := ledger.IncrementSoldCount(ctx, it); err != nil {
				return err
			}
		}

		if applied != nil {
			if err := coupon.New(tx).CommitUsage(ctx, applied.Coupon); err != nil {
				return err
			}
		}

		return carts.ClearCart(ctx, userID)
	})
	if txErr != nil {
		return nil, txErr
	}
	return order, nil
}

// buildOrderItem validates one cart line against the live catalog and
// freezes it into an order item with a point-in-time product snapshot.
func (s *OrderService) buildOrderItem(ctx context.Context, products *repo.ProductRepo, line models.CartItem) (*models.OrderItem, error) {
	product, err := products.GetProduct(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.Status != models.ProductStatusActive {
		return nil, fmt.Errorf("%w: product %s", ErrProductUnavailable, line.ProductID)
	}

	name := product.Name
	sku := product.SKU
	unitPrice := product.UnitPrice()
	snapshot := map[string]any{"product": product}

	if line.VariantID != nil {
		variant, err := products.GetVariant(ctx, *line.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil || variant.ProductID != product.ID {
			return nil, fmt.Errorf("%w: variant %s", ErrProductUnavailable, *line.VariantID)
		}
		if variant.Name != "" {
			name = fmt.Sprintf("%s (%s)", product.Name, variant.Name)
		}
		sku = variant.SKU
		unitPrice = variant.UnitPrice(product)
		snapshot["variant"] = variant
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	return &models.OrderItem{
		ProductID:       line.ProductID,
		VariantID:       line.VariantID,
		Name:            name,
		SKU:             sku,
		UnitPrice:       unitPrice,
		Quantity:        line.Quantity,
		LineTotal:       pricing.LineTotal(unitPrice, line.Quantity),
		ProductSnapshot: string(raw),
	}, nil
}
