package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farmdesk/farmdesk-backend/api/controllers"
	customercontrollers "github.com/farmdesk/farmdesk-backend/api/controllers/customers"
	ordercontrollers "github.com/farmdesk/farmdesk-backend/api/controllers/orders"
	stockcontrollers "github.com/farmdesk/farmdesk-backend/api/controllers/stock"
	"github.com/farmdesk/farmdesk-backend/api/middleware"
	"github.com/farmdesk/farmdesk-backend/internal/access"
	"github.com/farmdesk/farmdesk-backend/internal/customers"
	"github.com/farmdesk/farmdesk-backend/internal/orders"
	"github.com/farmdesk/farmdesk-backend/pkg/config"
	"github.com/farmdesk/farmdesk-backend/pkg/db"
	"github.com/farmdesk/farmdesk-backend/pkg/logger"
	pkgredis "github.com/farmdesk/farmdesk-backend/pkg/redis"
)

// Store is the slice of pkg/redis the HTTP edge uses. A nil Store disables
// idempotent replay and placement rate limiting.
type Store interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	store Store,
	gatherer prometheus.Gatherer,
	ordersSvc orders.Service,
	customersSvc customers.Service,
	stockLedger stockcontrollers.Ledger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	placementPolicy := middleware.PlacementPolicy{
		Window:    cfg.Orders.PlacementWindow,
		UserLimit: cfg.Orders.PlacementUserLimit,
	}

	deps := []controllers.Dependency{{Name: "database", Pinger: dbP}}
	if store != nil {
		deps = append(deps, controllers.Dependency{Name: "redis", Pinger: store})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps...))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(
				middleware.RequireCapability(access.OrdersPlace, logg),
				middleware.Idempotency(idempotencyStoreOrNil(store), logg),
				middleware.PlacementRateLimit(placementPolicy, limiterOrNil(store), logg),
			).Post("/", ordercontrollers.Place(ordersSvc, logg))

			r.With(middleware.RequireCapability(access.OrdersRead, logg)).Get("/", ordercontrollers.List(ordersSvc, logg))
			r.With(middleware.RequireCapability(access.OrdersRead, logg)).Get("/recent", ordercontrollers.Recent(ordersSvc, logg))
			r.With(middleware.RequireCapability(access.OrdersRead, logg)).Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
			r.With(middleware.RequireCapability(access.OrdersTransition, logg)).Put("/{orderId}/status", ordercontrollers.UpdateStatus(ordersSvc, logg))
			r.With(middleware.RequireCapability(access.OrdersCorrect, logg)).Put("/{orderId}", ordercontrollers.Correct(ordersSvc, logg))
			r.With(middleware.RequireCapability(access.OrdersDelete, logg)).Delete("/{orderId}", ordercontrollers.Delete(ordersSvc, logg))
		})

		r.Route("/customers/me", func(r chi.Router) {
			r.Use(middleware.RequireCapability(access.ProfileManage, logg))
			r.Get("/", customercontrollers.GetMe(customersSvc, logg))
			r.Put("/", customercontrollers.UpdateMe(customersSvc, logg))
		})

		r.Route("/products/{productId}", func(r chi.Router) {
			r.Use(middleware.RequireCapability(access.StockAdjust, logg))
			r.Post("/stock-adjustments", stockcontrollers.Adjust(stockLedger, logg))
			r.Get("/stock-movements", stockcontrollers.Movements(stockLedger, logg))
		})
	})

	return r
}

// The helpers below keep a nil store from becoming a non-nil interface.

func limiterOrNil(store Store) middleware.FixedWindowLimiter {
	if store == nil {
		return nil
	}
	return store
}

func idempotencyStoreOrNil(store Store) pkgredis.IdempotencyStore {
	if store == nil {
		return nil
	}
	return store
}
