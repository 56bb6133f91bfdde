package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/resinriver/storefront/api/routes"
	"github.com/resinriver/storefront/internal/addresses"
	"github.com/resinriver/storefront/internal/auth"
	"github.com/resinriver/storefront/internal/cart"
	"github.com/resinriver/storefront/internal/catalog"
	"github.com/resinriver/storefront/internal/checkout"
	"github.com/resinriver/storefront/internal/discounts"
	"github.com/resinriver/storefront/internal/notifications"
	"github.com/resinriver/storefront/internal/orders"
	"github.com/resinriver/storefront/internal/pricing"
	"github.com/resinriver/storefront/internal/shipping"
	"github.com/resinriver/storefront/internal/tax"
	"github.com/resinriver/storefront/internal/users"
	"github.com/resinriver/storefront/internal/wishlist"
	"github.com/resinriver/storefront/pkg/auth/session"
	"github.com/resinriver/storefront/pkg/config"
	"github.com/resinriver/storefront/pkg/db"
	"github.com/resinriver/storefront/pkg/logger"
	"github.com/resinriver/storefront/pkg/metrics"
	"github.com/resinriver/storefront/pkg/migrate"
	"github.com/resinriver/storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	storeMetrics := metrics.NewStoreMetrics(prometheus.DefaultRegisterer)
	deps, err := buildDependencies(cfg, logg, dbClient, redisClient, sessionManager, storeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}
	deps.Gatherer = prometheus.DefaultGatherer

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if err != nil {
		logg.Error(ctx, "error during shutdown", err)
		exitCode = 1
	}
	logg.Info(ctx, "api server stopped")
	os.Exit(exitCode)
}

func buildDependencies(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
	storeMetrics *metrics.StoreMetrics,
) (routes.Dependencies, error) {
	conn := dbClient.DB()

	itemRepo := catalog.NewRepository(conn)
	catalogService, err := catalog.NewService(itemRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}

	sessionCarts, err := cart.NewRedisSessionStore(redisClient, cfg.Cart.SessionTTL)
	if err != nil {
		return routes.Dependencies{}, err
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:            cart.NewRepository(conn),
		Tx:              dbClient,
		Sessions:        sessionCarts,
		Logger:          logg,
		MaxLineQuantity: cfg.Cart.MaxLineQuantity,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	shippingRepo := shipping.NewRepository(conn)
	discountRepo := discounts.NewRepository(conn)
	pricingService, err := pricing.NewService(pricing.ServiceParams{
		Shipping:       shippingRepo,
		Tax:            tax.NewRepository(conn),
		Discounts:      discountRepo,
		DefaultCountry: cfg.Checkout.DefaultCountry,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	userRepo := users.NewRepository(conn)
	mailer, err := notifications.NewMailer(cfg.Email, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	notifier, err := notifications.NewService(notifications.ServiceParams{
		Mailer:    mailer,
		Users:     userRepo,
		Logger:    logg,
		Metrics:   storeMetrics,
		StoreName: cfg.Email.StoreName,
		SiteURL:   cfg.App.PublicURL,
	})
	if err != nil {
		return routes.Dependencies{}, err
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
		return routes.Dependencies{}, err
	}

	addressRepo := addresses.NewRepository(conn)
	addressService, err := addresses.NewService(addresses.ServiceParams{
		Repo:           addressRepo,
		Tx:             dbClient,
		DefaultCountry: cfg.Checkout.DefaultCountry,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:             dbClient,
		Carts:          cartService,
		Pricing:        pricingService,
		Orders:         orderRepo,
		Discounts:      discountRepo,
		Shipping:       shippingRepo,
		Addresses:      addressRepo,
		Confirmer:      notifier,
		Metrics:        storeMetrics,
		Logger:         logg,
		DefaultCountry: cfg.Checkout.DefaultCountry,
		GuestCheckout:  cfg.FeatureFlags.GuestCheckout,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(conn),
		Items:        itemRepo,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Carts:          cartService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		DB:        dbClient,
		Redis:     redisClient,
		Sessions:  sessionManager,
		Catalog:   catalogService,
		Cart:      cartService,
		Checkout:  checkoutService,
		Orders:    ordersService,
		Addresses: addressService,
		Wishlist:  wishlistService,
		Auth:      authService,
	}, nil
}
