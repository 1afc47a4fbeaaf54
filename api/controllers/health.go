package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/tolujohnson/eventmanager-backend/api/responses"
	"github.com/tolujohnson/eventmanager-backend/pkg/config"
	pkgerrors "github.com/tolujohnson/eventmanager-backend/pkg/errors"
	"github.com/tolujohnson/eventmanager-backend/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger is the reachability surface a dependency exposes for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-EventManager-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the datastore dependencies. Nil pingers are skipped so
// optional dependencies never block readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-EventManager-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
