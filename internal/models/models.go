package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusArchived ProductStatus = "archived"
)

type Product struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"        json:"id"`
	Name        string              `gorm:"not null"                    json:"name"`
	SKU         string              `gorm:"uniqueIndex;not null"        json:"sku"`
	Description string              `json:"description"`
	Status      ProductStatus       `gorm:"not null;default:active"     json:"status"`
	Price       decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"price"`
	SalePrice   decimal.NullDecimal `gorm:"type:numeric(12,2)"          json:"sale_price"`
	Stock       int                 `gorm:"not null;check:stock >= 0"   json:"stock"`
	SoldCount   int                 `gorm:"not null;default:0"          json:"sold_count"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// UnitPrice is the price a buyer pays right now: the sale price when one is
// set, the list price otherwise.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

type ProductVariant struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey"      json:"id"`
	ProductID uuid.UUID           `gorm:"type:uuid;index;not null"  json:"product_id"`
	Name      string              `gorm:"not null"                  json:"name"`
	SKU       string              `gorm:"uniqueIndex;not null"      json:"sku"`
	Price     decimal.NullDecimal `gorm:"type:numeric(12,2)"        json:"price"`
	SalePrice decimal.NullDecimal `gorm:"type:numeric(12,2)"        json:"sale_price"`
	Stock     int                 `gorm:"not null;check:stock >= 0" json:"stock"`
	SoldCount int                 `gorm:"not null;default:0"        json:"sold_count"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// UnitPrice resolves the effective variant price, falling back to the parent
// product when the variant carries no price of its own.
func (v *ProductVariant) UnitPrice(p *Product) decimal.Decimal {
	if v.SalePrice.Valid {
		return v.SalePrice.Decimal
	}
	if v.Price.Valid {
		return v.Price.Decimal
	}
	return p.UnitPrice()
}

type CartItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"                               json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null;uniqueIndex:idx_cart_line" json:"user_id"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line"       json:"product_id"`
	VariantID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_line"                json:"variant_id,omitempty"`
	Quantity  int        `gorm:"not null;default:1;check:quantity > 0"              json:"quantity"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Address is embedded twice into Order (shipping and billing) so the order
// keeps its own copy, not a reference into the user's address book.
type Address struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type Order struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderNumber  string          `gorm:"uniqueIndex;not null"        json:"order_number"`
	UserID       uuid.UUID       `gorm:"type:uuid;index;not null"    json:"user_id"`
	Status       OrderStatus     `gorm:"not null;default:PENDING"    json:"status"`
	Subtotal     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Tax          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax"`
	ShippingCost decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_cost"`
	Discount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount"`
	Total        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	CouponCode   string          `gorm:"index"                       json:"coupon_code,omitempty"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:bill_" json:"billing_address"`

	Notes          string     `json:"notes,omitempty"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CancelReason   string     `json:"cancel_reason,omitempty"`

	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Payments []Payment   `gorm:"foreignKey:OrderID" json:"payments"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is a point-in-time copy of the purchased product. It is written
// once together with its order and never updated afterwards.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"          json:"product_id"`
	VariantID       *uuid.UUID      `gorm:"type:uuid"                   json:"variant_id,omitempty"`
	Name            string          `gorm:"not null"                    json:"name"`
	SKU             string          `gorm:"not null"                    json:"sku"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity        int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	LineTotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
	ProductSnapshot string          `json:"product_snapshot,omitempty"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderID       uuid.UUID       `gorm:"type:uuid;index;not null"    json:"order_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Method        string          `gorm:"not null"                    json:"method"`
	Status        PaymentStatus   `gorm:"not null;default:PENDING"    json:"status"`
	TransactionID string          `gorm:"index"                       json:"transaction_id,omitempty"`
	RefundedAt    *time.Time      `json:"refunded_at,omitempty"`
	RefundReason  string          `json:"refund_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusDisabled CouponStatus = "disabled"
)

type Coupon struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	Code           string          `gorm:"uniqueIndex;not null"        json:"code"`
	Type           DiscountType    `gorm:"not null"                    json:"type"`
	Value          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"value"`
	MinOrderAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"min_order_amount"`
	MaxUses        int             `gorm:"not null;default:0"          json:"max_uses"`
	MaxUsesPerUser int             `gorm:"not null;default:0"          json:"max_uses_per_user"`
	// UsedCount only ever grows. Cancelling an order does not give the
	// coupon use back.
	UsedCount    int          `gorm:"not null;default:0"      json:"used_count"`
	FreeShipping bool         `gorm:"not null;default:false"  json:"free_shipping"`
	StartsAt     *time.Time   `json:"starts_at,omitempty"`
	EndsAt       *time.Time   `json:"ends_at,omitempty"`
	Status       CouponStatus `gorm:"not null;default:active" json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
