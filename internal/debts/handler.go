package debts

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/simpananku/simpananku/internal/platform/httpx"
	"github.com/simpananku/simpananku/internal/savings"
	"github.com/simpananku/simpananku/internal/shared"
)

// Handler wires HTTP endpoints for student and staff debts.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountGuruRoutes registers student-debt routes; callers gate them to GURU.
func (h *Handler) MountGuruRoutes(r chi.Router) {
	r.Post("/debts", h.handleCreateStudentDebt)
	r.Post("/debts/{id}/pay", h.handlePayStudentDebt)
}

// MountBendaharaRoutes registers staff-debt routes; callers gate them to
// BENDAHARA.
func (h *Handler) MountBendaharaRoutes(r chi.Router) {
	r.Get("/bendahara/debts/teacher", h.handleListTeacherDebts)
	r.Post("/bendahara/debts/teacher", h.handleCreateTeacherDebt)
	r.Post("/bendahara/debts/teacher/{id}/pay", h.handlePayTeacherDebt)
}

type createStudentDebtRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Notes     string `json:"notes" validate:"max=255"`
	DueDate   string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) handleCreateStudentDebt(w http.ResponseWriter, r *http.Request) {
	var req createStudentDebtRequest
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

	var dueDate *time.Time
	if req.DueDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.DueDate, time.Local)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid dueDate")
			return
		}
		dueDate = &parsed
	}

	debt, err := h.service.CreateStudentDebt(r.Context(), CreateStudentDebtInput{
		StudentID:    req.StudentID,
		Amount:       req.Amount,
		Notes:        req.Notes,
		DueDate:      dueDate,
		ActorID:      id.UserID,
		ManagedClass: id.ClassManaged,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, debt)
}

func (h *Handler) handlePayStudentDebt(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if id == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	err := h.service.PayStudentDebt(r.Context(), PayStudentDebtInput{
		DebtID:       chi.URLParam(r, "id"),
		ActorID:      id.UserID,
		ManagedClass: id.ClassManaged,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createTeacherDebtRequest struct {
	TeacherName string `json:"teacherName" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Notes       string `json:"notes" validate:"max=255"`
}

func (h *Handler) handleCreateTeacherDebt(w http.ResponseWriter, r *http.Request) {
	var req createTeacherDebtRequest
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

	debt, err := h.service.CreateTeacherDebt(r.Context(), CreateTeacherDebtInput{
		TeacherName: req.TeacherName,
		Amount:      req.Amount,
		Notes:       req.Notes,
		RecordedBy:  id.UserID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, debt)
}

func (h *Handler) handlePayTeacherDebt(w http.ResponseWriter, r *http.Request) {
	if err := h.service.PayTeacherDebt(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListTeacherDebts(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListTeacherDebts(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if list == nil {
		list = []TeacherDebt{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrMissingTeacherName):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDebtNotFound), errors.Is(err, ErrStudentNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrWrongClass):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrAlreadyPaid):
		httpx.Problem(w, http.StatusConflict, "Already Paid", err.Error())
	case errors.Is(err, savings.ErrInsufficientBalance):
		httpx.Problem(w, http.StatusConflict, "Insufficient Balance", err.Error())
	default:
		h.logger.Error("debts request", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
