package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tolujohnson/eventmanager-backend/api/controllers"
	"github.com/tolujohnson/eventmanager-backend/api/middleware"
	"github.com/tolujohnson/eventmanager-backend/internal/checkin"
	"github.com/tolujohnson/eventmanager-backend/internal/events"
	"github.com/tolujohnson/eventmanager-backend/internal/ledger"
	"github.com/tolujohnson/eventmanager-backend/internal/payments"
	"github.com/tolujohnson/eventmanager-backend/internal/settings"
	"github.com/tolujohnson/eventmanager-backend/internal/tickets"
	"github.com/tolujohnson/eventmanager-backend/internal/users"
	"github.com/tolujohnson/eventmanager-backend/pkg/config"
	"github.com/tolujohnson/eventmanager-backend/pkg/logger"
)

// Services bundles every wired business service. Operation routing and
// caller authentication live in the embedding deployment; this process only
// exposes operational endpoints, but the full graph is constructed at boot
// so misconfiguration fails fast.
type Services struct {
	Settings settings.Service
	Ledger   ledger.Service
	Tickets  tickets.Service
	Checkin  checkin.Service
	Events   events.Service
	Payments payments.Service
	Users    users.Service
}

// NewRouter builds the service's HTTP surface.
func NewRouter(cfg *config.Config, logg *logger.Logger, db controllers.Pinger, redis controllers.Pinger, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": db,
			"redis":    redis,
		}))
	})

	return r
}
