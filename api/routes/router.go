package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carelane/medstock-backend/api/controllers"
	"github.com/carelane/medstock-backend/api/middleware"
	"github.com/carelane/medstock-backend/internal/audit"
	"github.com/carelane/medstock-backend/internal/auth"
	"github.com/carelane/medstock-backend/internal/catalog"
	"github.com/carelane/medstock-backend/internal/dashboard"
	"github.com/carelane/medstock-backend/internal/inventory"
	"github.com/carelane/medstock-backend/pkg/auth/session"
	"github.com/carelane/medstock-backend/pkg/config"
	"github.com/carelane/medstock-backend/pkg/db"
	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/carelane/medstock-backend/pkg/logger"
	pkgredis "github.com/carelane/medstock-backend/pkg/redis"
)

// RedisStore is the Redis surface the HTTP layer needs: idempotency replay, login
// throttling and readiness.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
	Ping(ctx context.Context) error
}

// Dependencies are the services mounted by NewRouter. Gatherer defaults to the global
// Prometheus registry.
type Dependencies struct {
	DB        db.Pinger
	Redis     RedisStore
	Sessions  session.AccessSessionChecker
	Auth      auth.Service
	Inventory inventory.Service
	Audit     audit.Recorder
	Dashboard dashboard.Service
	Catalog   catalog.Service
	Gatherer  prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	var checks []controllers.ReadinessCheck
	if deps.DB != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "postgres", Ping: deps.DB.Ping})
	}
	if deps.Redis != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Ping: deps.Redis.Ping})
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})

	loginPolicy := middleware.NewLoginRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	var limiter middlewareRateStore
	if deps.Redis != nil {
		limiter = deps.Redis
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		// Inline so the idempotency middleware sees the full route pattern.
		var store pkgredis.IdempotencyStore
		if deps.Redis != nil {
			store = deps.Redis
		}
		idempotent := r.With(middleware.Idempotency(store, logg))

		r.Get("/inventory", controllers.ListInventory(deps.Inventory, logg))
		idempotent.Post("/inventory", controllers.CreateInventoryItem(deps.Inventory, logg))
		r.Get("/inventory/{id}", controllers.GetInventoryItem(deps.Inventory, logg))
		idempotent.Patch("/inventory/{id}", controllers.UpdateInventoryItem(deps.Inventory, logg))
		idempotent.Post("/inventory/{id}/adjust", controllers.AdjustInventoryStock(deps.Inventory, logg))
		r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).Delete("/inventory/{id}", controllers.DeleteInventoryItem(deps.Inventory, logg))

		r.Route("/audit-logs", func(r chi.Router) {
			r.Get("/", controllers.ListAuditLogs(deps.Audit, logg))
			r.Get("/recent", controllers.RecentAuditLogs(deps.Audit, logg))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", controllers.DashboardStats(deps.Dashboard, logg))
			r.Get("/low-stock", controllers.DashboardLowStock(deps.Dashboard, logg))
			r.Get("/out-of-stock", controllers.DashboardOutOfStock(deps.Dashboard, logg))
			r.Get("/expiring", controllers.DashboardExpiring(deps.Dashboard, logg))
			r.Get("/critical-expiration", controllers.DashboardCriticalExpiration(deps.Dashboard, logg))
		})

		r.Get("/departments", controllers.ListDepartments(deps.Catalog, logg))
		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))
	})

	return r
}

type middlewareRateStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}
