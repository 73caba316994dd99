package savings

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/simpananku/simpananku/internal/platform/httpx"
	"github.com/simpananku/simpananku/internal/shared"
)

type savingService interface {
	CreateSaving(ctx context.Context, input CreateSavingInput) (*Saving, error)
}

// Handler wires HTTP endpoints for ledger postings.
type Handler struct {
	logger    *slog.Logger
	service   savingService
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service savingService) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers posting routes; callers gate them to the GURU role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/savings", h.handleCreate)
}

type createSavingRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Type      string `json:"type" validate:"required,oneof=DEPOSIT WITHDRAWAL"`
	Notes     string `json:"notes" validate:"max=255"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSavingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	id := shared.IdentityFromContext(r.Context())
	if id == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	if id.Role == shared.RoleGuru && id.ClassManaged == "" {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no class assigned")
		return
	}

	saving, err := h.service.CreateSaving(r.Context(), CreateSavingInput{
		StudentID:    req.StudentID,
		Amount:       req.Amount,
		Type:         SavingType(req.Type),
		Notes:        req.Notes,
		ActorID:      id.UserID,
		ManagedClass: id.ClassManaged,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, saving)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidType):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrStudentNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrWrongClass):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		httpx.Problem(w, http.StatusConflict, "Insufficient Balance", err.Error())
	default:
		h.logger.Error("create saving", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
