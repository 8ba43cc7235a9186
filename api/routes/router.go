package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hifideliveryeats/cartsync/api/controllers"
	"github.com/hifideliveryeats/cartsync/api/middleware"
	"github.com/hifideliveryeats/cartsync/internal/cart"
	"github.com/hifideliveryeats/cartsync/internal/menu"
	"github.com/hifideliveryeats/cartsync/pkg/config"
	"github.com/hifideliveryeats/cartsync/pkg/logger"
	"github.com/hifideliveryeats/cartsync/pkg/metrics"
)

// Deps groups what the router wires into handlers. DB and Redis may be nil
// when the dependency is not configured.
type Deps struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Menu        menu.Service
	Cart        cart.Service
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/menu_items", controllers.MenuItems(deps.Menu, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CustomerContext(logg))
			r.Get("/cart", controllers.CartFetch(deps.Cart, logg))
			r.Post("/cart", controllers.CartReplace(deps.Cart, logg))
		})
	})

	return r
}
