package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/resinriver/storefront/internal/cron"
	"github.com/resinriver/storefront/internal/notifications"
	"github.com/resinriver/storefront/internal/orders"
	"github.com/resinriver/storefront/internal/users"
	"github.com/resinriver/storefront/pkg/config"
	"github.com/resinriver/storefront/pkg/db"
	"github.com/resinriver/storefront/pkg/logger"
	"github.com/resinriver/storefront/pkg/metrics"
	"github.com/resinriver/storefront/pkg/migrate"
	"github.com/resinriver/storefront/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	service, err := buildService(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create housekeeping service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Housekeeping.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	exitCode := 0
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		exitCode = 1
	}

	if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "error during shutdown", err)
		exitCode = 1
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
	os.Exit(exitCode)
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Service, error) {
	conn := dbClient.DB()
	storeMetrics := metrics.NewStoreMetrics(prometheus.DefaultRegisterer)
	housekeepingMetrics := metrics.NewHousekeepingMetrics(prometheus.DefaultRegisterer)

	mailer, err := notifications.NewMailer(cfg.Email, logg)
	if err != nil {
		return nil, err
	}
	notifier, err := notifications.NewService(notifications.ServiceParams{
		Mailer:    mailer,
		Users:     users.NewRepository(conn),
		Logger:    logg,
		Metrics:   storeMetrics,
		StoreName: cfg.Email.StoreName,
		SiteURL:   cfg.App.PublicURL,
	})
	if err != nil {
		return nil, err
	}

	orderRepo := orders.NewRepository(conn)
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     orderRepo,
		Tx:       dbClient,
		Notifier: notifier,
		Metrics:  storeMetrics,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}

	unpaidJob, err := cron.NewUnpaidOrderJob(cron.UnpaidOrderJobParams{
		Logger:    logg,
		Orders:    orderRepo,
		Canceller: ordersService,
		Metrics:   housekeepingMetrics,
		TTL:       cfg.Housekeeping.UnpaidOrderTTL,
		BatchSize: cfg.Housekeeping.BatchSize,
	})
	if err != nil {
		return nil, err
	}

	lock, err := cron.NewRedisLock(redisClient, cron.LockKey, cfg.Housekeeping.LockTTL)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(unpaidJob),
		Lock:     lock,
		Metrics:  housekeepingMetrics,
		Interval: cfg.Housekeeping.Interval,
	})
}
