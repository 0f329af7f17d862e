package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atlas-qms/atlas-qms/internal/actions"
	"github.com/atlas-qms/atlas-qms/internal/attachments"
	"github.com/atlas-qms/atlas-qms/internal/auth"
	"github.com/atlas-qms/atlas-qms/internal/dashboard"
	"github.com/atlas-qms/atlas-qms/internal/observability"
	"github.com/atlas-qms/atlas-qms/internal/org"
	"github.com/atlas-qms/atlas-qms/internal/shared"
	"github.com/atlas-qms/atlas-qms/internal/users"
	"github.com/atlas-qms/atlas-qms/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	UserService *users.Service

	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	OrgHandler        *org.Handler
	ActionsHandler    *actions.Handler
	AttachmentHandler *attachments.Handler
	DashboardHandler  *dashboard.Handler
	JobHandler        *jobs.Handler

	FileServer http.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.FileServer != nil {
		r.Mount("/files", http.StripPrefix("/files", params.FileServer))
	}

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
	})

	// Everything below requires a signed-in user resolved to an actor.
	r.Group(func(r chi.Router) {
		r.Use(users.ActorMiddleware(params.UserService, params.Logger))

		r.Route("/actions", func(r chi.Router) {
			params.ActionsHandler.MountRoutes(r)
			r.Route("/{actionID}/attachments", func(r chi.Router) {
				params.AttachmentHandler.MountRoutes(r)
			})
		})
		r.Route("/org", func(r chi.Router) {
			params.OrgHandler.MountRoutes(r)
		})
		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r)
		})
		r.Route("/dashboard", func(r chi.Router) {
			params.DashboardHandler.MountRoutes(r)
		})
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}
