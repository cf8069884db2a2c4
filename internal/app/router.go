package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agrivance/agrivance/internal/assistant"
	"github.com/agrivance/agrivance/internal/inventory"
	"github.com/agrivance/agrivance/internal/locations"
	"github.com/agrivance/agrivance/internal/observability"
	"github.com/agrivance/agrivance/internal/shipments"
	"github.com/agrivance/agrivance/internal/tasks"
	"github.com/agrivance/agrivance/internal/weather"
	"github.com/agrivance/agrivance/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	InventoryHandler *inventory.Handler
	LocationHandler  *locations.Handler
	ShipmentHandler  *shipments.Handler
	TaskHandler      *tasks.Handler
	WeatherHandler   *weather.Handler
	AssistantHandler *assistant.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with AgriVance defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/locations", params.LocationHandler.MountRoutes)
		r.Route("/shipments", params.ShipmentHandler.MountRoutes)
		r.Route("/tasks", params.TaskHandler.MountRoutes)
		if params.WeatherHandler != nil {
			r.Route("/weather", params.WeatherHandler.MountRoutes)
		}
		if params.AssistantHandler != nil {
			r.Route("/assistant", params.AssistantHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
