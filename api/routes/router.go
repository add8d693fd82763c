package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/influenciando/reseller-backend/api/controllers"
	"github.com/influenciando/reseller-backend/api/middleware"
	"github.com/influenciando/reseller-backend/internal/catalog"
	"github.com/influenciando/reseller-backend/internal/orders"
	"github.com/influenciando/reseller-backend/internal/reconcile"
	"github.com/influenciando/reseller-backend/internal/settings"
	"github.com/influenciando/reseller-backend/internal/users"
	"github.com/influenciando/reseller-backend/pkg/config"
	"github.com/influenciando/reseller-backend/pkg/db"
	"github.com/influenciando/reseller-backend/pkg/logger"
	"github.com/influenciando/reseller-backend/pkg/provider"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DBPinger        db.Pinger
	RedisPinger     db.Pinger
	Users           *users.Service
	Orders          *orders.Service
	Reconcile       *reconcile.Service
	Catalog         *catalog.Service
	Settings        *settings.Service
	Provider        *provider.Client
	Webhooks        *reconcile.WebhookHandler
	MetricsGatherer prometheus.Gatherer
}

// NewRouter assembles the chi router with the full middleware chain.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, []db.Pinger{p.DBPinger, p.RedisPinger}, logg))
	})

	if p.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment-provider", controllers.PaymentWebhook(p.Webhooks, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.Login(p.Users, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/users/profile", controllers.Profile(p.Users, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Post("/", controllers.CreateOrder(p.Orders, logg))
			r.Get("/{orderID}/status", controllers.OrderStatus(p.Reconcile, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Post("/{orderID}/process", controllers.ProcessOrder(p.Reconcile, logg))
				r.Post("/{orderID}/refill", controllers.RefillOrder(p.Reconcile, logg))
				r.Post("/sync-status", controllers.SyncOrders(p.Reconcile, logg))
			})
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", controllers.ListServices(p.Catalog, logg))
			r.Get("/categories", controllers.ServiceCategories(p.Catalog, logg))
			r.Get("/{serviceID}", controllers.GetService(p.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Post("/sync", controllers.SyncServices(p.Catalog, logg))
				r.Put("/{serviceID}", controllers.UpdateService(p.Catalog, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Post("/users", controllers.CreateUser(p.Users, logg))

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", controllers.ListSettings(p.Settings, logg))
				r.Get("/{key}", controllers.GetSetting(p.Settings, logg))
				r.Put("/{key}", controllers.PutSetting(p.Settings, logg))
			})

			r.Get("/provider/balance", controllers.ProviderBalance(p.Provider, logg))
		})
	})

	return r
}
