package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/impresiones-magicas/storefront/api/responses"
	"github.com/impresiones-magicas/storefront/pkg/config"
	"github.com/impresiones-magicas/storefront/pkg/logger"
	redisclient "github.com/impresiones-magicas/storefront/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the redis dependency. The catalog backend is not
// probed: the storefront stays up when the backend flaps, surfacing upstream
// errors per request instead.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisPinger redisclient.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"redis": "ok"}
		ready := true
		if redisPinger != nil {
			if err := redisPinger.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(ctx, "redis health check failed", err)
				}
				checks["redis"] = "unavailable"
				ready = false
			}
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}
