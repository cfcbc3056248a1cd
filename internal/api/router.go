// Package api exposes the service over HTTP: JSON endpoints under /api, a
// health check and the Prometheus scrape endpoint.
package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/erazemk/zimmet/internal/audit"
	"github.com/erazemk/zimmet/internal/auth"
	"github.com/erazemk/zimmet/internal/db"
	"github.com/erazemk/zimmet/internal/forms"
	"github.com/erazemk/zimmet/internal/metrics"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/service"
)

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	DB       *sql.DB
	Issuer   *auth.Issuer
	Services service.Deps
	Forms    *forms.Store
	Audit    *audit.Recorder
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	svc := d.Services
	svc.DB = d.DB
	svc.Audit = d.Audit
	svc.Metrics = d.Metrics
	if d.Forms != nil {
		svc.Forms = d.Forms
	}

	authHandler := &AuthHandler{DB: d.DB, Issuer: d.Issuer}
	usersHandler := &UsersHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{Items: service.NewItems(svc)}
	personnelHandler := &PersonnelHandler{Personnel: service.NewPersonnel(svc)}
	assignmentsHandler := &AssignmentsHandler{Assignments: service.NewAssignments(svc)}
	settingsHandler := &SettingsHandler{DB: d.DB}
	auditHandler := &AuditHandler{DB: d.DB}

	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	r := chi.NewRouter()
	r.Use(RequestID(d.Logger), Logging(d.Metrics), Recoverer)

	r.Get("/healthz", health(d.DB))
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		// Public: login.
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Issuer, d.DB))

			r.Post("/auth/logout", authHandler.Logout)
			r.Put("/auth/password", authHandler.ChangePassword)

			// Users (admin only).
			r.Route("/users", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/", usersHandler.List)
				r.Post("/", usersHandler.Create)
				r.Get("/{id}", usersHandler.Get)
				r.Put("/{id}", usersHandler.Update)
				r.Put("/{id}/password", usersHandler.ResetPassword)
				r.Delete("/{id}", usersHandler.Delete)
			})

			// Items: read (all roles), write (manager+).
			r.Route("/items", func(r chi.Router) {
				r.Get("/", itemsHandler.List)
				r.Get("/{id}", itemsHandler.Get)
				r.With(requireManager).Post("/", itemsHandler.Create)
				r.With(requireManager).Put("/{id}", itemsHandler.Update)
				r.With(requireManager).Delete("/{id}", itemsHandler.Delete)
			})

			// Personnel: read (all roles), write (manager+).
			r.Route("/personnel", func(r chi.Router) {
				r.Get("/", personnelHandler.List)
				r.Get("/{id}", personnelHandler.Get)
				r.With(requireManager).Post("/", personnelHandler.Create)
				r.With(requireManager).Put("/{id}", personnelHandler.Update)
				r.With(requireManager).Delete("/{id}", personnelHandler.Delete)
			})

			// Assignments: read and request (all roles), decide (manager+).
			r.Route("/assignments", func(r chi.Router) {
				r.Get("/", assignmentsHandler.List)
				r.Post("/", assignmentsHandler.Create)
				r.Get("/pending-grouped", assignmentsHandler.PendingGrouped)
				r.Get("/pending-count", assignmentsHandler.PendingCount)
				r.Get("/search", assignmentsHandler.Search)
				r.With(requireManager).Put("/approve-multiple", assignmentsHandler.ApproveMultiple)
				r.With(requireManager).Post("/reject-multiple", assignmentsHandler.RejectMultiple)
				r.Get("/{id}", assignmentsHandler.Get)
				r.With(requireManager).Put("/{id}", assignmentsHandler.Update)
				r.With(requireManager).Delete("/{id}", assignmentsHandler.Delete)
			})

			// Signed forms.
			if d.Forms != nil {
				formsHandler := &FormsHandler{Forms: d.Forms, Audit: d.Audit}
				r.With(requireManager).Post("/forms", formsHandler.Upload)
				r.Get("/forms/{name}", formsHandler.Get)
			}

			r.Get("/settings/preferences", settingsHandler.GetPreferences)
			r.Put("/settings/preferences", settingsHandler.PutPreferences)
			r.With(requireAdmin).Put("/settings/preferences/global", settingsHandler.PutGlobalPreferences)

			r.With(requireAdmin).Get("/audit", auditHandler.List)
		})
	})

	return r
}

func health(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version, err := db.Version(r.Context(), database)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "schemaVersion": version})
	}
}
