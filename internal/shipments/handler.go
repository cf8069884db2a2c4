package shipments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agrivance/agrivance/internal/inventory"
	"github.com/agrivance/agrivance/internal/platform/httpx"
	"github.com/agrivance/agrivance/internal/shared"
)

// Handler exposes the shipments JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches shipment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Put("/{id}/status", h.Advance)
	r.Put("/{id}/position", h.UpdatePosition)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 50
	}
	status := Status(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown status filter")
		return
	}

	shipments, total, err := h.service.List(r.Context(), ListFilter{Status: status, Page: page, Limit: limit})
	if err != nil {
		h.logger.Error("list shipments failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListResponse{Shipments: shipments, Meta: shared.NewPagination(page, limit, total)})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateShipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	contents := make([]ContentLine, 0, len(req.Contents))
	for _, line := range req.Contents {
		contents = append(contents, ContentLine{
			ItemName: line.ItemName,
			Quantity: line.Quantity,
			Unit:     inventory.Unit(line.Unit),
		})
	}

	created, err := h.service.Create(r.Context(), CreateInput{
		Code:        req.Code,
		Origin:      Endpoint(req.Origin),
		Destination: Endpoint(req.Destination),
		Contents:    contents,
	})
	if err != nil {
		h.logger.Error("create shipment failed", "error", err)
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid shipment id")
		return
	}
	sh, err := h.service.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err != nil {
		h.logger.Error("get shipment failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sh)
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid shipment id")
		return
	}
	var req AdvanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	requested := Status(req.Status)
	if !requested.IsValid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status "+strconv.Quote(req.Status))
		return
	}

	sh, err := h.service.Advance(r.Context(), id, requested)
	if err != nil {
		h.respondAdvanceError(w, err, id)
		return
	}
	httpx.JSON(w, http.StatusOK, sh)
}

// respondAdvanceError maps lifecycle failures onto HTTP statuses: state
// conflicts are 409, stock guard failures are 422.
func (h *Handler) respondAdvanceError(w http.ResponseWriter, err error, id int64) {
	var terminal *TerminalStateError
	var invalid *InvalidTransitionError
	var missing *InventoryNotFoundError
	var short *InsufficientStockError

	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.As(err, &terminal):
		httpx.Problem(w, http.StatusConflict, "Shipment Delivered", terminal.Error())
	case errors.As(err, &invalid):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", invalid.Error())
	case errors.As(err, &missing):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Inventory Not Found", missing.Error())
	case errors.As(err, &short):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", short.Error())
	default:
		h.logger.Error("advance shipment failed", "error", err, "id", id)
		httpx.RespondError(w, err)
	}
}

func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid shipment id")
		return
	}
	var req PositionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.UpdatePosition(r.Context(), id, GeoPoint{Lat: req.Lat, Lng: req.Lng}); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("update shipment position failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
