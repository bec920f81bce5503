package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/tubeshop-backend/api/responses"
	"github.com/angelmondragon/tubeshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
)

const envHeader = "X-Tubeshop-Env"

// Pinger is any dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, Redis. Nil pingers
// are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, db Pinger, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		failed := false
		for name, p := range map[string]Pinger{"database": db, "redis": redis} {
			if p == nil {
				checks[name] = "disabled"
				continue
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "down"
				failed = true
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "health.ready.failed", err)
				}
				continue
			}
			checks[name] = "up"
		}

		if failed {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

// HealthCheck answers the /api health aliases used by the Mini App host.
func HealthCheck(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
		})
	}
}
