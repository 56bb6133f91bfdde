package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/resinriver/storefront/api/controllers"
	"github.com/resinriver/storefront/api/middleware"
	"github.com/resinriver/storefront/internal/addresses"
	"github.com/resinriver/storefront/internal/auth"
	"github.com/resinriver/storefront/internal/cart"
	"github.com/resinriver/storefront/internal/catalog"
	"github.com/resinriver/storefront/internal/checkout"
	"github.com/resinriver/storefront/internal/orders"
	"github.com/resinriver/storefront/internal/wishlist"
	"github.com/resinriver/storefront/pkg/auth/session"
	"github.com/resinriver/storefront/pkg/config"
	"github.com/resinriver/storefront/pkg/logger"
	"github.com/resinriver/storefront/pkg/metrics"
	"github.com/resinriver/storefront/pkg/redis"
)

// RedisClient is the slice of the redis client the HTTP layer needs.
type RedisClient interface {
	redis.Pinger
	redis.IdempotencyStore
	middleware.RateLimiter
}

// Dependencies collects everything the router hands to middleware and
// controllers. Leave a field nil to disable it; controllers answer 500 for a
// missing service and the readiness probe skips a missing pinger.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    RedisClient
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer

	Catalog   catalog.Service
	Cart      cart.Service
	Checkout  checkout.Service
	Orders    orders.Service
	Addresses addresses.Service
	Wishlist  wishlist.Service
	Auth      auth.Service
}

func (d Dependencies) readinessChecks() map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if d.DB != nil {
		checks["database"] = d.DB
	}
	if d.Redis != nil {
		checks["redis"] = d.Redis
	}
	return checks
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	// Interface fields stay nil when unset so middleware can skip them.
	var (
		idempotencyStore redis.IdempotencyStore
		limiter          middleware.RateLimiter
	)
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		limiter = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.readinessChecks()))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Get("/robots.txt", controllers.RobotsTxt(cfg.App.PublicURL))
	r.Get("/sitemap.xml", controllers.Sitemap(deps.Catalog, cfg.App.PublicURL, logg))

	r.Route("/api/v1", func(r chi.Router) {
		// Refresh and logout carry expired access tokens, so the auth
		// routes sit outside OptionalAuth.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CartToken(logg))
			r.Use(middleware.Idempotency(idempotencyStore, cfg.Checkout.IdempotencyTTL, logg))
			r.Route("/auth", func(r chi.Router) {
				r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
				r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
				r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
				r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.CartToken(logg))
			r.Use(middleware.Idempotency(idempotencyStore, cfg.Checkout.IdempotencyTTL, logg))

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/home", controllers.CatalogHome(deps.Catalog, logg))
				r.Get("/categories", controllers.CatalogCategories(deps.Catalog, logg))
				r.Get("/items", controllers.CatalogList(deps.Catalog, logg))
				r.Get("/items/{slug}", controllers.CatalogDetail(deps.Catalog, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartView(deps.Cart, logg))
				r.Get("/count", controllers.CartCount(deps.Cart, logg))
				r.Post("/items", controllers.CartAdd(deps.Cart, logg))
				r.Patch("/items/{itemID}", controllers.CartUpdate(deps.Cart, logg))
				r.Delete("/items/{itemID}", controllers.CartRemove(deps.Cart, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", controllers.CheckoutContext(deps.Checkout, logg))
				r.Post("/", controllers.CheckoutPlaceOrder(deps.Checkout, logg))
				r.Post("/quote", controllers.CheckoutQuote(deps.Checkout, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(middleware.RequireUser(logg)).Get("/", controllers.OrderList(deps.Orders, logg))
				r.Get("/{orderID}", controllers.OrderDetail(deps.Orders, logg))
				r.Post("/{orderID}/payment", controllers.OrderPayment(deps.Orders, logg))
				r.With(middleware.RequireStaff(logg)).Patch("/{orderID}/status", controllers.OrderUpdateStatus(deps.Orders, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Use(middleware.RequireUser(logg))
				r.Get("/", controllers.AddressList(deps.Addresses, logg))
				r.Post("/", controllers.AddressCreate(deps.Addresses, logg))
				r.Put("/{addressID}", controllers.AddressUpdate(deps.Addresses, logg))
				r.Delete("/{addressID}", controllers.AddressDelete(deps.Addresses, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Use(middleware.RequireUser(logg))
				r.Get("/", controllers.WishlistGet(deps.Wishlist, logg))
				r.Get("/ids", controllers.WishlistIDs(deps.Wishlist, logg))
				r.Post("/", controllers.WishlistAdd(deps.Wishlist, logg))
				r.Delete("/{itemID}", controllers.WishlistRemove(deps.Wishlist, logg))
			})
		})
	})

	return r
}
