package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/petverse/petverse-backend/api/routes"
	"github.com/petverse/petverse-backend/internal/auth"
	"github.com/petverse/petverse-backend/internal/cart"
	"github.com/petverse/petverse-backend/internal/catalog"
	"github.com/petverse/petverse-backend/internal/orders"
	"github.com/petverse/petverse-backend/internal/pricing"
	"github.com/petverse/petverse-backend/internal/settlement"
	"github.com/petverse/petverse-backend/internal/users"
	"github.com/petverse/petverse-backend/internal/wallet"
	"github.com/petverse/petverse-backend/pkg/config"
	"github.com/petverse/petverse-backend/pkg/db"
	"github.com/petverse/petverse-backend/pkg/logger"
	"github.com/petverse/petverse-backend/pkg/metrics"
	"github.com/petverse/petverse-backend/pkg/migrate"
	"github.com/petverse/petverse-backend/pkg/outbox"
	"github.com/petverse/petverse-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	walletRepo := wallet.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	transactionRepo := orders.NewTransactionRepository(gormDB)
	attemptRepo := settlement.NewAttemptRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:    cartRepo,
		Catalog: catalogRepo,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	walletService, err := wallet.NewService(wallet.ServiceParams{
		Repo:         walletRepo,
		Transactions: transactionRepo,
		Runner:       dbClient,
		Events:       outboxService,
		Wallet:       cfg.Wallet,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:   orderRepo,
		Runner: dbClient,
		Events: outboxService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		Attempts:     attemptRepo,
		Carts:        cartService,
		Accounts:     walletService,
		Wallets:      walletRepo,
		Catalog:      catalogRepo,
		Orders:       orderRepo,
		Transactions: transactionRepo,
		Pricer:       pricing.NewEngine(cfg.Pricing),
		Runner:       dbClient,
		Events:       outboxService,
		Metrics:      settlementMetrics,
		Settlement:   cfg.Settlement,
		Wallet:       cfg.Wallet,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Registry:   registry,
			Auth:       authService,
			Cart:       cartService,
			Wallet:     walletService,
			Orders:     orderService,
			Settlement: settlementService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
