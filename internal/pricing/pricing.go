// Package pricing computes order totals. It is deliberately free of I/O so
// the same inputs always produce the same totals.
package pricing

import "github.com/shopspring/decimal"

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Config struct {
	TaxRate               decimal.Decimal
	ShippingCost          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

type Totals struct {
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
}

// round2 rounds half-up to two decimal places. Every intermediate result is
// rounded so totals never accumulate drift.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal prices a single line.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return round2(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Calculate produces the order totals for the given lines. discount is
// clamped to the subtotal rather than rejected; freeShipping forces zero
// shipping regardless of the threshold.
func Calculate(lines []Line, cfg Config, discount decimal.Decimal, freeShipping bool) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineTotal(l.UnitPrice, l.Quantity))
	}
	subtotal = round2(subtotal)

	tax := round2(subtotal.Mul(cfg.TaxRate))

	shipping := cfg.ShippingCost
	if freeShipping || subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	shipping = round2(shipping)

	if discount.LessThan(decimal.Zero) {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	discount = round2(discount)

	total := round2(subtotal.Add(tax).Add(shipping).Sub(discount))

	return Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Discount:     discount,
		Total:        total,
	}
}
