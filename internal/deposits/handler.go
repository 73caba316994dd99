package deposits

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simpananku/simpananku/internal/platform/httpx"
	"github.com/simpananku/simpananku/internal/shared"
)

// Handler wires HTTP endpoints for daily deposit submission and confirmation.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountGuruRoutes registers teacher-facing routes; callers gate them to GURU.
func (h *Handler) MountGuruRoutes(r chi.Router) {
	r.Get("/guru/summary/daily", h.handleDailySummary)
	r.Post("/guru/deposits/submit", h.handleSubmit)
}

// MountBendaharaRoutes registers treasurer-facing routes; callers gate them
// to BENDAHARA.
func (h *Handler) MountBendaharaRoutes(r chi.Router) {
	r.Get("/bendahara/deposits/pending", h.handlePending)
	r.Post("/bendahara/deposits/{id}/confirm", h.handleConfirm)
}

func (h *Handler) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	guru, ok := guruFromContext(w, r)
	if !ok {
		return
	}
	summary, err := h.service.DailySummary(r.Context(), guru)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	guru, ok := guruFromContext(w, r)
	if !ok {
		return
	}
	slip, err := h.service.Submit(r.Context(), guru)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, slip)
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	slips, err := h.service.Pending(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if slips == nil {
		slips = []DailyDepositSlip{}
	}
	httpx.JSON(w, http.StatusOK, slips)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	slip, err := h.service.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, slip)
}

func guruFromContext(w http.ResponseWriter, r *http.Request) (GuruRef, bool) {
	id := shared.IdentityFromContext(r.Context())
	if id == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return GuruRef{}, false
	}
	return GuruRef{ID: id.UserID, Username: id.Username, ManagedClass: id.ClassManaged}, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoManagedClass):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrSlipNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNothingToSubmit):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Nothing To Submit", err.Error())
	case errors.Is(err, ErrAlreadySubmitted):
		httpx.Problem(w, http.StatusConflict, "Already Submitted", err.Error())
	case errors.Is(err, ErrAlreadyConfirmed):
		httpx.Problem(w, http.StatusConflict, "Already Confirmed", err.Error())
	default:
		h.logger.Error("deposits request", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
