package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/momtazchem/commerce-backend/internal/carts"
	"github.com/momtazchem/commerce-backend/internal/customers"
	"github.com/momtazchem/commerce-backend/internal/inventory"
	"github.com/momtazchem/commerce-backend/internal/notify"
	"github.com/momtazchem/commerce-backend/internal/orders"
	"github.com/momtazchem/commerce-backend/internal/recon"
	"github.com/momtazchem/commerce-backend/internal/rules"
	"github.com/momtazchem/commerce-backend/internal/wallet"
	"github.com/momtazchem/commerce-backend/pkg/config"
	"github.com/momtazchem/commerce-backend/pkg/db"
	"github.com/momtazchem/commerce-backend/pkg/logger"
	"github.com/momtazchem/commerce-backend/pkg/metrics"
	"github.com/momtazchem/commerce-backend/pkg/migrate"
	"github.com/momtazchem/commerce-backend/pkg/pubsub"
	"github.com/momtazchem/commerce-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "recon-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "recon-worker",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	ordersRepo := orders.NewRepository(dbClient.DB())
	inventoryRepo := inventory.NewRepository(dbClient.DB())
	customersRepo := customers.NewRepository(dbClient.DB())
	cartsRepo := carts.NewRepository(dbClient.DB())

	walletService, err := wallet.NewService(wallet.Params{
		Repo: wallet.NewRepository(dbClient.DB()),
		Tx:   dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	notifyService, err := notify.NewService(notify.Params{
		Repo:       notify.NewRepository(dbClient.DB()),
		Customers:  customersRepo,
		Dispatcher: notify.NewPubSubDispatcher(pubsubClient.NotificationPublisher()),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notify service", err)
		os.Exit(1)
	}

	windows := rules.WindowsFromConfig(cfg.Grace)

	passMetrics := metrics.NewPassMetrics(prometheus.DefaultRegisterer)

	gracePass, err := recon.NewGracePeriodPass(recon.GracePeriodPassParams{
		Logger:    logg,
		DB:        dbClient,
		Orders:    ordersRepo,
		Inventory: inventoryRepo,
		Wallet:    walletService,
		Notify:    notifyService,
		Customers: customersRepo,
		Windows:   windows,
		Metrics:   passMetrics,
		Interval:  cfg.Recon.GracePeriodInterval,
		BatchSize: cfg.Recon.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create grace-period pass", err)
		os.Exit(1)
	}

	autoRefundPass, err := recon.NewAutoRefundPass(recon.AutoRefundPassParams{
		Logger:    logg,
		DB:        dbClient,
		Orders:    ordersRepo,
		Inventory: inventoryRepo,
		Wallet:    walletService,
		Notify:    notifyService,
		Windows:   windows,
		Metrics:   passMetrics,
		Interval:  cfg.Recon.AutoRefundInterval,
		BatchSize: cfg.Recon.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auto-refund pass", err)
		os.Exit(1)
	}

	expiredPass, err := recon.NewExpiredOrdersPass(recon.ExpiredOrdersPassParams{
		Logger:    logg,
		DB:        dbClient,
		Orders:    ordersRepo,
		Inventory: inventoryRepo,
		Wallet:    walletService,
		Windows:   windows,
		SafetyNet: cfg.SafetyNet,
		Metrics:   passMetrics,
		Interval:  cfg.Recon.ExpiredOrdersInterval,
		BatchSize: cfg.Recon.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expired-orders pass", err)
		os.Exit(1)
	}

	cartPass, err := recon.NewCartCleanupPass(recon.CartCleanupPassParams{
		Logger:    logg,
		Carts:     cartsRepo,
		Notify:    notifyService,
		Stages:    cfg.Carts,
		Metrics:   passMetrics,
		Interval:  cfg.Recon.CartCleanupInterval,
		BatchSize: cfg.Recon.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart-cleanup pass", err)
		os.Exit(1)
	}

	registry := recon.NewRegistry(gracePass, autoRefundPass, expiredPass, cartPass)

	locks := make(map[string]recon.Lock, len(registry.Passes()))
	for _, pass := range registry.Passes() {
		lock, err := recon.NewRedisLock(redisClient, redisClient.LockKey(pass.Name()), cfg.Recon.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create pass lock", err)
			os.Exit(1)
		}
		locks[pass.Name()] = lock
	}

	service, err := recon.NewService(recon.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Locks: func(pass string) recon.Lock {
			return locks[pass]
		},
		Metrics: passMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create recon service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting recon worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "recon worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "recon worker shutting down gracefully")
}
