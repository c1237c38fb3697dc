package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-core/api/controllers"
	"github.com/angelmondragon/storefront-core/api/middleware"
	"github.com/angelmondragon/storefront-core/pkg/config"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

// Callbacks is the hosted gateway as seen by the HTTP surface.
type Callbacks interface {
	controllers.GatewayCallbacks
	Pending() []string
}

// NewRouter builds the storefront's HTTP surface: health check, metrics and the
// hosted payment page callbacks. redis and gatherer may be nil.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redis controllers.Pinger,
	gatherer prometheus.Gatherer,
	callbacks Callbacks,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var pending func() []string
	if callbacks != nil {
		pending = callbacks.Pending
	}
	r.Get("/healthz", controllers.Healthz(cfg, redis, pending, logg))

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	if callbacks != nil {
		r.Route("/gateway/{gatewayOrderID}", func(r chi.Router) {
			r.Post("/success", controllers.GatewaySuccess(callbacks, logg))
			r.Post("/failure", controllers.GatewayFailure(callbacks, logg))
			r.Post("/cancel", controllers.GatewayCancel(callbacks, logg))
		})
	}

	return r
}
