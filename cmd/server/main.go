package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/shopcore/marketplace/internal/config"
	"github.com/shopcore/marketplace/internal/httpserver"
	"github.com/shopcore/marketplace/internal/logging"
	"github.com/shopcore/marketplace/internal/mykafka"
	"github.com/shopcore/marketplace/internal/repo"
	"github.com/shopcore/marketplace/internal/service"
	"github.com/shopcore/marketplace/pkg/db"
	loggingmw "github.com/shopcore/marketplace/pkg/middleware/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	pricingCfg, err := cfg.PricingConfig()
	if err != nil {
		log.Fatalf("pricing config: %v", err)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gormDB, err := db.Open(initCtx, cfg.DSN())
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var events service.EventPublisher
	var producer *mykafka.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer(strings.Split(cfg.KAFKA_ADDRESS, ","))
		events = producer
	}

	orderService := service.New(gormDB, pricingCfg, events)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler: &httpserver.OrderHandler{
			Svc:       orderService,
			JWTSecret: []byte(cfg.JWT_SECRET),
		},
		CartHandler: &httpserver.CartHandler{
			Repo:      &repo.CartRepo{DB: gormDB},
			JWTSecret: []byte(cfg.JWT_SECRET),
		},
	})

	port := cfg.SERVER_PORT
	if port == "" {
		port = "8080"
	}

	go func() {
		logger.Info("starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}

	sqlDB, err := gormDB.DB()
	if err == nil {
		sqlDB.Close()
	}

	logger.Info("server stopped")
}
