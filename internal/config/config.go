package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/shopcore/marketplace/internal/pricing"
)

type Config struct {
	DB_HOST       string
	DB_PORT       string
	DB_USER       string
	DB_PASSWORD   string
	DB_NAME       string
	JWT_SECRET    string
	KAFKA_ADDRESS string
	SERVER_PORT   string
	LOG_LEVEL     string

	TAX_RATE                string
	SHIPPING_COST           string
	FREE_SHIPPING_THRESHOLD string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:       os.Getenv("DB_HOST"),
		DB_PORT:       os.Getenv("DB_PORT"),
		DB_USER:       os.Getenv("DB_USER"),
		DB_PASSWORD:   os.Getenv("DB_PASSWORD"),
		DB_NAME:       os.Getenv("DB_NAME"),
		JWT_SECRET:    os.Getenv("JWT_SECRET"),
		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
		SERVER_PORT:   os.Getenv("SERVER_PORT"),
		LOG_LEVEL:     os.Getenv("LOG_LEVEL"),

		TAX_RATE:                os.Getenv("TAX_RATE"),
		SHIPPING_COST:           os.Getenv("SHIPPING_COST"),
		FREE_SHIPPING_THRESHOLD: os.Getenv("FREE_SHIPPING_THRESHOLD"),
	}

	return config, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME,
	)
}

// PricingConfig parses the pricing knobs, with defaults matching a small
// shop: 8% tax, flat 10.00 shipping, free above 100.00.
func (c *Config) PricingConfig() (pricing.Config, error) {
	cfg := pricing.Config{
		TaxRate:               decimal.NewFromFloat(0.08),
		ShippingCost:          decimal.NewFromInt(10),
		FreeShippingThreshold: decimal.NewFromInt(100),
	}

	var err error
	if c.TAX_RATE != "" {
		if cfg.TaxRate, err = decimal.NewFromString(c.TAX_RATE); err != nil {
			return cfg, fmt.Errorf("TAX_RATE: %w", err)
		}
	}
	if c.SHIPPING_COST != "" {
		if cfg.ShippingCost, err = decimal.NewFromString(c.SHIPPING_COST); err != nil {
			return cfg, fmt.Errorf("SHIPPING_COST: %w", err)
		}
	}
	if c.FREE_SHIPPING_THRESHOLD != "" {
		if cfg.FreeShippingThreshold, err = decimal.NewFromString(c.FREE_SHIPPING_THRESHOLD); err != nil {
			return cfg, fmt.Errorf("FREE_SHIPPING_THRESHOLD: %w", err)
		}
	}
	return cfg, nil
}
