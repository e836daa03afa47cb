package service

import (
	"context"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopcore/marketplace/internal/models"
	"github.com/shopcore/marketplace/internal/pricing"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []map[string]any
}

func (p *capturePublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := event.(map[string]any); ok {
		p.events = append(p.events, m)
	}
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if t, ok := e["type"].(string); ok {
			out = append(out, t)
		}
	}
	return out
}

type testEnv struct {
	DB     *gorm.DB
	Svc    *OrderService
	Events *capturePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Coupon{},
	))

	events := &capturePublisher{}
	cfg := pricing.Config{
		TaxRate:               dec("0.08"),
		ShippingCost:          dec("10"),
		FreeShippingThreshold: dec("100"),
	}
	return &testEnv{
		DB:     db,
		Svc:    New(db, cfg, events),
		Events: events,
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (env *testEnv) createProduct(t *testing.T, price string, stock int) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:        gofakeit.ProductName(),
		SKU:         gofakeit.UUID(),
		Description: gofakeit.Sentence(6),
		Status:      models.ProductStatusActive,
		Price:       dec(price),
		Stock:       stock,
	}
	require.NoError(t, env.DB.Create(p).Error)
	return p
}

func (env *testEnv) createVariant(t *testing.T, product *models.Product, price string, stock int) *models.ProductVariant {
	t.Helper()

	v := &models.ProductVariant{
		ProductID: product.ID,
		Name:      gofakeit.Color(),
		SKU:       gofakeit.UUID(),
		Stock:     stock,
	}
	if price != "" {
		v.Price = decimal.NewNullDecimal(dec(price))
	}
	require.NoError(t, env.DB.Create(v).Error)
	return v
}

func (env *testEnv) addCartLine(t *testing.T, userID uuid.UUID, p *models.Product, v *models.ProductVariant, qty int) {
	t.Helper()

	item := &models.CartItem{
		UserID:    userID,
		ProductID: p.ID,
		Quantity:  qty,
	}
	if v != nil {
		item.VariantID = &v.ID
	}
	require.NoError(t, env.DB.Create(item).Error)
}

func (env *testEnv) cartSize(t *testing.T, userID uuid.UUID) int {
	t.Helper()

	var n int64
	require.NoError(t, env.DB.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&n).Error)
	return int(n)
}

func (env *testEnv) reloadProduct(t *testing.T, id uuid.UUID) *models.Product {
	t.Helper()

	var p models.Product
	require.NoError(t, env.DB.First(&p, "id = ?", id).Error)
	return &p
}

func (env *testEnv) orderCount(t *testing.T) int {
	t.Helper()

	var n int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&n).Error)
	return int(n)
}

func testAddress() models.Address {
	return models.Address{
		FullName:   "Test Buyer",
		Line1:      "1 Main st",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
}
