package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanbenito/ferreteria-backend/api/controllers"
	"github.com/sanbenito/ferreteria-backend/api/middleware"
	authsvc "github.com/sanbenito/ferreteria-backend/internal/auth"
	cartsvc "github.com/sanbenito/ferreteria-backend/internal/cart"
	catalogsvc "github.com/sanbenito/ferreteria-backend/internal/catalog"
	checkoutsvc "github.com/sanbenito/ferreteria-backend/internal/checkout"
	orderssvc "github.com/sanbenito/ferreteria-backend/internal/orders"
	pricingsvc "github.com/sanbenito/ferreteria-backend/internal/pricing"
	ratessvc "github.com/sanbenito/ferreteria-backend/internal/rates"
	userssvc "github.com/sanbenito/ferreteria-backend/internal/users"
	"github.com/sanbenito/ferreteria-backend/pkg/auth/session"
	"github.com/sanbenito/ferreteria-backend/pkg/config"
	"github.com/sanbenito/ferreteria-backend/pkg/db"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
	"github.com/sanbenito/ferreteria-backend/pkg/metrics"
)

// CacheBackend is the slice of the redis client the router wires directly:
// readiness checks and the auth rate limiter.
type CacheBackend interface {
	Ping(ctx context.Context) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Deps collects everything the router wires into handlers.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           CacheBackend
	Sessions        session.AccessSessionChecker
	Metrics         *metrics.HTTPMetrics
	MetricsGatherer prometheus.Gatherer

	Auth     authsvc.Service
	Users    userssvc.Service
	Catalog  catalogsvc.Service
	Pricing  pricingsvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   orderssvc.Service
	Rates    ratessvc.Service
}

// NewRouter assembles the HTTP surface: public catalog browsing, the
// session-scoped cart, authenticated buyer operations, and the admin API.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.Metrics),
		middleware.CORS(),
		middleware.Session(logg, cfg.App.IsProd()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Redis, logg))
	})

	if d.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.MetricsGatherer, promhttp.HandlerOpts{}))
	}

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

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.Register(d.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.Login(d.Auth, logg))
		r.Post("/refresh", controllers.Refresh(d.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, d.Sessions, logg)).Post("/logout", controllers.Logout(d.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Catalog browsing and the cart work for anonymous visitors; a valid
		// token upgrades the cart to the account-backed one.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, d.Sessions, logg))

			r.Get("/products", controllers.ProductList(d.Catalog, d.Pricing, logg))
			r.Get("/products/{slug}", controllers.ProductDetail(d.Catalog, d.Pricing, logg))
			r.Get("/categories", controllers.CategoryList(d.Catalog, logg))

			r.Get("/currency", controllers.CurrencyShow(d.Cart, cfg.Currency, logg))
			r.Put("/currency", controllers.CurrencySelect(d.Cart, cfg.Currency, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartView(d.Cart, logg))
				r.Post("/items", controllers.CartAdd(d.Cart, logg))
				r.Put("/items/{productID}", controllers.CartUpdate(d.Cart, logg))
				r.Delete("/items/{productID}", controllers.CartRemove(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

			r.Post("/checkout", controllers.Checkout(d.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(d.Orders, logg))
				r.Get("/{orderNumber}", controllers.OrderDetail(d.Orders, logg))
				r.Post("/{orderNumber}/payment-proof", controllers.OrderSubmitPaymentProof(d.Orders, logg))
			})

			r.Route("/me", func(r chi.Router) {
				r.Get("/", controllers.ProfileGet(d.Users, logg))
				r.Put("/", controllers.ProfileUpdate(d.Users, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/rates", func(r chi.Router) {
			r.Get("/", controllers.AdminRateList(d.Rates, logg))
			r.Put("/", controllers.AdminRateUpsert(d.Rates, logg))
			r.Post("/{rateID}/activate", controllers.AdminRateActivate(d.Rates, logg))
			r.Post("/{rateID}/deactivate", controllers.AdminRateDeactivate(d.Rates, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(d.Catalog, logg))
			r.Patch("/{productID}", controllers.AdminProductUpdate(d.Catalog, logg))
			r.Delete("/{productID}", controllers.AdminProductDeactivate(d.Catalog, logg))
			r.Post("/{productID}/stock", controllers.AdminProductAdjustStock(d.Catalog, logg))
		})
		r.Post("/categories", controllers.AdminCategoryCreate(d.Catalog, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(d.Orders, logg))
			r.Get("/{orderID}", controllers.AdminOrderDetail(d.Orders, logg))
			r.Post("/{orderID}/approve-payment", controllers.AdminApprovePayment(d.Orders, logg))
			r.Post("/{orderID}/reject-payment", controllers.AdminRejectPayment(d.Orders, logg))
			r.Post("/{orderID}/status", controllers.AdminUpdateOrderStatus(d.Orders, logg))
		})
	})

	return r
}
