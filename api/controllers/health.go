package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz reports liveness plus, when redis is configured, its reachability.
func Healthz(cfg *config.Config, redis Pinger, pending func() []string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		status := map[string]any{"status": "ok"}
		if pending != nil {
			status["pending_handoffs"] = len(pending())
		}
		if redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redis.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "redis unavailable"))
				return
			}
			status["redis"] = "ok"
		}
		responses.WriteSuccess(w, status)
	}
}
