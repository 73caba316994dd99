package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simpananku/simpananku/internal/platform/httpx"
)

type statsService interface {
	Overview(ctx context.Context) (*Overview, error)
}

// Handler wires the dashboard endpoint.
type Handler struct {
	logger  *slog.Logger
	service statsService
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service statsService) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the dashboard endpoints; callers gate them to staff
// roles. The split views all derive from the same snapshot so their numbers
// agree within a response cycle.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stats/overview", h.handleOverview)
	r.Get("/stats/admin", h.handleAdmin)
	r.Get("/stats/global", h.handleGlobal)
	r.Get("/stats/savings-chart", h.handleSavingsChart)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	overview, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"totalStudents":    overview.TotalStudents,
		"totalTeachers":    overview.TotalTeachers,
		"totalClasses":     overview.TotalClasses,
		"todayDeposits":    overview.TodayDeposits,
		"todayWithdrawals": overview.TodayWithdrawals,
	})
}

func (h *Handler) handleGlobal(w http.ResponseWriter, r *http.Request) {
	overview, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"totalBalance":   overview.TotalBalance,
		"totalDebt":      overview.TotalDebt,
		"totalStaffDebt": overview.TotalStaffDebt,
	})
}

func (h *Handler) handleSavingsChart(w http.ResponseWriter, r *http.Request) {
	overview, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, overview.Weekly)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (*Overview, bool) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.Error("stats snapshot", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return nil, false
	}
	return overview, true
}
