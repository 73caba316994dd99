package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/simpananku/simpananku/internal/auth"
	"github.com/simpananku/simpananku/internal/classes"
	"github.com/simpananku/simpananku/internal/debts"
	"github.com/simpananku/simpananku/internal/deposits"
	"github.com/simpananku/simpananku/internal/rbac"
	"github.com/simpananku/simpananku/internal/savings"
	"github.com/simpananku/simpananku/internal/shared"
	"github.com/simpananku/simpananku/internal/stats"
	"github.com/simpananku/simpananku/internal/students"
	"github.com/simpananku/simpananku/internal/users"
	"github.com/simpananku/simpananku/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	StudentsHandler *students.Handler
	ClassesHandler  *classes.Handler
	SavingsHandler  *savings.Handler
	DebtsHandler    *debts.Handler
	DepositsHandler *deposits.Handler
	StatsHandler    *stats.Handler
	JobsHandler     *jobs.Handler

	RBACMiddleware rbac.Middleware
}

// NewRouter constructs the chi.Router serving the JSON API under /api.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(LoginRateLimiter())
			params.AuthHandler.MountPublicRoutes(public)
		})

		api.Group(func(private chi.Router) {
			private.Use(params.RBACMiddleware.RequireAuth)
			params.AuthHandler.MountProtectedRoutes(private)

			private.Group(func(admin chi.Router) {
				admin.Use(params.RBACMiddleware.RequireRole(shared.RoleAdmin))
				params.UsersHandler.MountRoutes(admin)
				params.StudentsHandler.MountAdminRoutes(admin)
				params.ClassesHandler.MountRoutes(admin)
				if params.JobsHandler != nil {
					admin.Route("/jobs", params.JobsHandler.MountRoutes)
				}
			})

			private.Group(func(read chi.Router) {
				read.Use(params.RBACMiddleware.RequireRole(
					shared.RoleAdmin, shared.RoleGuru, shared.RoleBendahara, shared.RoleSiswa,
				))
				params.StudentsHandler.MountReadRoutes(read)
			})

			private.Group(func(guru chi.Router) {
				guru.Use(params.RBACMiddleware.RequireRole(shared.RoleGuru))
				params.StudentsHandler.MountGuruRoutes(guru)
				params.SavingsHandler.MountRoutes(guru)
				params.DebtsHandler.MountGuruRoutes(guru)
				params.DepositsHandler.MountGuruRoutes(guru)
			})

			private.Group(func(bendahara chi.Router) {
				bendahara.Use(params.RBACMiddleware.RequireRole(shared.RoleBendahara))
				params.DepositsHandler.MountBendaharaRoutes(bendahara)
				params.DebtsHandler.MountBendaharaRoutes(bendahara)
			})

			private.Group(func(staff chi.Router) {
				staff.Use(params.RBACMiddleware.RequireRole(shared.RoleAdmin, shared.RoleBendahara))
				params.StatsHandler.MountRoutes(staff)
			})
		})
	})

	return r
}
