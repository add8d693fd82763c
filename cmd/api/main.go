package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/influenciando/reseller-backend/api/routes"
	"github.com/influenciando/reseller-backend/internal/catalog"
	"github.com/influenciando/reseller-backend/internal/orders"
	"github.com/influenciando/reseller-backend/internal/reconcile"
	"github.com/influenciando/reseller-backend/internal/settings"
	"github.com/influenciando/reseller-backend/internal/users"
	"github.com/influenciando/reseller-backend/pkg/config"
	"github.com/influenciando/reseller-backend/pkg/db"
	"github.com/influenciando/reseller-backend/pkg/logger"
	"github.com/influenciando/reseller-backend/pkg/mercadopago"
	"github.com/influenciando/reseller-backend/pkg/metrics"
	"github.com/influenciando/reseller-backend/pkg/migrate"
	"github.com/influenciando/reseller-backend/pkg/provider"
	"github.com/influenciando/reseller-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	providerClient, err := provider.NewClient(cfg.Provider)
	if err != nil {
		logg.Error(context.Background(), "failed to create provider client", err)
		os.Exit(1)
	}

	gatewayClient, err := mercadopago.NewClient(cfg.MercadoPago)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	settingsRepo := settings.NewRepository(dbClient.DB())
	usersRepo := users.NewRepository(dbClient.DB())

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:          catalogRepo,
		Provider:      providerClient,
		DB:            dbClient,
		Logger:        logg,
		Metrics:       syncMetrics,
		DefaultMargin: cfg.Pricing.DefaultProfitMargin,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:    ordersRepo,
		Catalog: catalogService,
		Gateway: gatewayClient,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	reconcileService, err := reconcile.NewService(reconcile.ServiceParams{
		Repo:     ordersRepo,
		Ledger:   ordersService,
		Provider: providerClient,
		DB:       dbClient,
		Logger:   logg,
		Metrics:  syncMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	settingsService, err := settings.NewService(settings.ServiceParams{Repo: settingsRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.ServiceParams{
		Repo:        usersRepo,
		JWTConfig:   cfg.JWT,
		PasswordCfg: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	webhookGuard, err := reconcile.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "payment-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	webhookHandler, err := reconcile.NewWebhookHandler(reconcile.WebhookHandlerParams{
		Ledger:   ordersService,
		Payments: gatewayClient,
		Guard:    webhookGuard,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook handler", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			RedisPinger:     redisClient,
			Users:           usersService,
			Orders:          ordersService,
			Reconcile:       reconcileService,
			Catalog:         catalogService,
			Settings:        settingsService,
			Provider:        providerClient,
			Webhooks:        webhookHandler,
			MetricsGatherer: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
