package students

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/simpananku/simpananku/internal/debts"
	"github.com/simpananku/simpananku/internal/platform/httpx"
	"github.com/simpananku/simpananku/internal/savings"
	"github.com/simpananku/simpananku/internal/shared"
)

type studentService interface {
	Create(ctx context.Context, req CreateRequest) (*Student, error)
	Update(ctx context.Context, id string, input UpdateStudentInput) (*Student, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Student, error)
	List(ctx context.Context, query ListQuery) ([]Student, int, error)
	ListByClass(ctx context.Context, className string) ([]Student, error)
}

type savingsLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]savings.Saving, error)
}

type debtsLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]debts.StudentDebt, error)
}

// Handler wires HTTP endpoints for the student directory.
type Handler struct {
	logger    *slog.Logger
	service   studentService
	importer  *Importer
	savings   savingsLister
	debts     debtsLister
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service studentService, importer *Importer, savingsSvc savingsLister, debtsSvc debtsLister) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		importer:  importer,
		savings:   savingsSvc,
		debts:     debtsSvc,
		validator: validator.New(),
	}
}

// MountAdminRoutes registers directory management; callers gate them to the
// ADMIN role.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/students", h.handleCreate)
	r.Put("/students/{id}", h.handleUpdate)
	r.Delete("/students/{id}", h.handleDelete)
	r.Post("/students/import", h.handleImport)
}

// MountGuruRoutes registers the wali kelas roster endpoint.
func (h *Handler) MountGuruRoutes(r chi.Router) {
	r.Get("/guru/students", h.handleClassRoster)
}

// MountReadRoutes registers listing and per-student history endpoints.
// Staff roles see every student; a SISWA caller only their own record.
func (h *Handler) MountReadRoutes(r chi.Router) {
	r.Get("/students", h.handleList)
	r.Get("/students/{id}", h.handleGet)
	r.Get("/students/{id}/savings", h.handleSavings)
	r.Get("/students/{id}/debts", h.handleDebts)
}

type createStudentRequest struct {
	NIS         string `json:"nis" validate:"required,max=32"`
	Name        string `json:"name" validate:"required,max=120"`
	ClassName   string `json:"class" validate:"required,max=60"`
	WithAccount bool   `json:"withAccount"`
	Username    string `json:"username" validate:"omitempty,min=3,max=60"`
	Password    string `json:"password" validate:"omitempty,min=6,max=72"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	student, err := h.service.Create(r.Context(), CreateRequest{
		NIS:         req.NIS,
		Name:        req.Name,
		ClassName:   req.ClassName,
		WithAccount: req.WithAccount,
		Username:    req.Username,
		Password:    req.Password,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, student)
}

type updateStudentRequest struct {
	NIS       *string `json:"nis" validate:"omitempty,max=32"`
	Name      *string `json:"name" validate:"omitempty,max=120"`
	ClassName *string `json:"class" validate:"omitempty,max=60"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateStudentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	student, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateStudentInput{
		NIS:       req.NIS,
		Name:      req.Name,
		ClassName: req.ClassName,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, student)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(2 << 20); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "expected multipart form with a file field")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing file field")
		return
	}
	defer file.Close()

	result, err := h.importer.Import(r.Context(), file)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	query := ListQuery{
		Search: r.URL.Query().Get("search"),
		Class:  r.URL.Query().Get("class"),
	}
	query.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	query.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if identity.Role == shared.RoleGuru {
		// A wali kelas only ever works with their own class.
		query.Class = identity.ClassManaged
	}

	data, total, err := h.service.List(r.Context(), query)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if data == nil {
		data = []Student{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       data,
		"pagination": shared.NewPagination(query.Page, query.Limit, total),
	})
}

func (h *Handler) handleClassRoster(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	if identity.ClassManaged == "" {
		httpx.JSON(w, http.StatusOK, []Student{})
		return
	}
	roster, err := h.service.ListByClass(r.Context(), identity.ClassManaged)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if roster == nil {
		roster = []Student{}
	}
	httpx.JSON(w, http.StatusOK, roster)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorizeRead(w, r, id) {
		return
	}
	student, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, student)
}

func (h *Handler) handleSavings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorizeRead(w, r, id) {
		return
	}
	entries, err := h.savings.ListByStudent(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if entries == nil {
		entries = []savings.Saving{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) handleDebts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorizeRead(w, r, id) {
		return
	}
	list, err := h.debts.ListByStudent(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if list == nil {
		list = []debts.StudentDebt{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

// authorizeRead enforces that SISWA callers only read their own record.
func (h *Handler) authorizeRead(w http.ResponseWriter, r *http.Request, studentID string) bool {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return false
	}
	if identity.Role == shared.RoleSiswa && identity.StudentID != studentID {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "students may only view their own account")
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingField):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrStudentNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrUnknownClass):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Class", err.Error())
	case errors.Is(err, ErrDuplicateNIS), errors.Is(err, ErrDuplicateUsername):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("students request", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
