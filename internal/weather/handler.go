package weather

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrivance/agrivance/internal/platform/httpx"
)

// Handler exposes the weather JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches weather routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/forecast", h.Forecast)
	r.Get("/geocode", h.Geocode)
}

// Geocode backs the "find coordinates" assist when registering a new
// location: free-form city or address in, coordinates out.
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "city query parameter is required")
		return
	}

	place, err := h.service.Geocode(r.Context(), city)
	if errors.Is(err, ErrCityNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if errors.Is(err, ErrUpstream) {
		h.logger.Error("geocode upstream failed", "error", err, "city", city)
		httpx.RespondError(w, httpx.ErrUpstream)
		return
	}
	if err != nil {
		h.logger.Error("geocode failed", "error", err, "city", city)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, place)
}

func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "city query parameter is required")
		return
	}

	fc, err := h.service.ForecastByCity(r.Context(), city)
	if errors.Is(err, ErrCityNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if errors.Is(err, ErrUpstream) {
		h.logger.Error("weather upstream failed", "error", err, "city", city)
		httpx.RespondError(w, httpx.ErrUpstream)
		return
	}
	if err != nil {
		h.logger.Error("forecast failed", "error", err, "city", city)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, fc)
}
