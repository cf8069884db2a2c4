package assistant

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agrivance/agrivance/internal/platform/httpx"
	"github.com/agrivance/agrivance/internal/weather"
)

// Handler exposes the assistant JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches assistant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/query", h.Query)
	r.Get("/planting-suggestions", h.PlantingSuggestions)
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	answer, err := h.service.Query(r.Context(), req.Query)
	if errors.Is(err, ErrModel) {
		h.logger.Error("assistant query failed", "error", err)
		httpx.RespondError(w, httpx.ErrUpstream)
		return
	}
	if err != nil {
		h.logger.Error("assistant query failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, QueryResponse{Answer: answer})
}

func (h *Handler) PlantingSuggestions(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "city query parameter is required")
		return
	}

	suggestions, err := h.service.PlantingSuggestions(r.Context(), city)
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	case errors.Is(err, weather.ErrUpstream), errors.Is(err, ErrModel):
		h.logger.Error("planting suggestions failed", "error", err, "city", city)
		httpx.RespondError(w, httpx.ErrUpstream)
		return
	case err != nil:
		h.logger.Error("planting suggestions failed", "error", err, "city", city)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, SuggestionsResponse{City: city, Suggestions: suggestions})
}
