package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"delivery/internal/app"
	"delivery/internal/config"
	"delivery/internal/handler"
	internalRedis "delivery/internal/redis"
	"delivery/internal/repository/postgres"
	"delivery/internal/service"
)

func main() {
	cfg := config.Load()
	logger := app.ConfigureLogger(cfg.Log)

	// The connect timeout can be long for hosted databases; leave room for it.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout+10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize New Relic")
		} else {
			logger.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			logger.WithError(err).Fatal("failed to apply schema")
		}
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	server := wireServer(db, redisClient, nrApp, logger, cfg)

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, logger *log.Logger, cfg *config.Config) *http.Server {
	// Redis stores.
	cacheStore := internalRedis.NewCacheStore(redisClient, cfg.Orders.CatalogTTL)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Repositories.
	userRepo := postgres.NewUserRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	productRepo := postgres.NewProductRepository(db)
	expenseRepo := postgres.NewExpenseRepository(db)
	txRunner := postgres.NewTxRunner(db)

	// Services.
	notificationService := service.NewNotificationService(logger)
	receiptService := service.NewReceiptService()
	catalogService := service.NewCatalogService(productRepo, cacheStore)
	orderService := service.NewOrderService(
		orderRepo, txRunner, lockStore, catalogService,
		notificationService, receiptService, cfg.Orders.PaymentLockTTL,
	)
	expenseService := service.NewExpenseService(expenseRepo, notificationService)

	router := app.NewRouter(app.RouterDeps{
		OrderHandler:   handler.NewOrderHandler(orderService),
		ProductHandler: handler.NewProductHandler(catalogService),
		ExpenseHandler: handler.NewExpenseHandler(expenseService),
		UserHandler:    handler.NewUserHandler(userRepo),
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		Logger:         logger,
		JWTSecret:      cfg.Auth.JWTSecret,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
