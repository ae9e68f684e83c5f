package controllers

import (
	"context"
	"net/http"

	"github.com/pressroomhq/printdesk-backend/api/responses"
	"github.com/pressroomhq/printdesk-backend/pkg/config"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
)

const envHeader = "X-PrintDesk-Env"

// Pinger is implemented by every backing client the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each wired dependency. A nil pinger is reported as
// skipped so partial deployments (no bucket, no broker) stay green.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		statuses := make(map[string]string, len(checks))
		healthy := true
		for name, pinger := range checks {
			if pinger == nil {
				statuses[name] = "skipped"
				continue
			}
			if err := pinger.Ping(r.Context()); err != nil {
				statuses[name] = "down"
				healthy = false
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "dependency", name), "readiness check failed: "+err.Error())
				}
				continue
			}
			statuses[name] = "up"
		}

		payload := map[string]any{"status": "ready", "dependencies": statuses}
		if !healthy {
			payload["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, payload)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
