package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/smartwork/api"
	"github.com/frahmantamala/smartwork/internal/auth"
	"github.com/frahmantamala/smartwork/internal/recurring"
	"github.com/frahmantamala/smartwork/internal/request"
	"github.com/frahmantamala/smartwork/internal/transport/middleware"
	"github.com/frahmantamala/smartwork/internal/transport/swagger"
	"github.com/frahmantamala/smartwork/internal/user"
)

type Handlers struct {
	Auth      *auth.Handler
	Roles     *auth.RoleAuthorization
	User      *user.Handler
	Request   *request.Handler
	Recurring *recurring.Handler
}

type Options struct {
	AllowedOrigins []string
	// Validate is the OpenAPI request validator; nil skips validation.
	Validate func(http.Handler) http.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sqlx.DB, h Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	requireAdmin := h.Roles.RequireAdmin()

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))
	if opts.Validate != nil {
		router.Use(opts.Validate)
	}

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("SmartWork API"))
	})
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec)
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	router.Get("/health", healthHandler.healthCheckHandler)
	router.Get("/ping", healthHandler.pingHandler)

	router.Route("/auth", func(ar chi.Router) {
		ar.Post("/login", h.Auth.Login)
		ar.Post("/forgot-password", h.Auth.ForgotPassword)
	})

	router.Group(func(pr chi.Router) {
		pr.Use(h.Auth.AuthMiddleware)

		pr.Route("/me", func(mr chi.Router) {
			mr.Get("/", h.User.GetCurrentUser)
			mr.Post("/theme", h.User.UpdateTheme)
			mr.Post("/change-password", h.Auth.ChangePassword)
		})

		pr.Route("/users", func(ur chi.Router) {
			ur.Use(requireAdmin)
			ur.Get("/", h.User.ListUsers)
			ur.Post("/", h.User.CreateUser)
			ur.Delete("/{username}", h.User.DeleteUser)
		})

		pr.Route("/requests", func(rr chi.Router) {
			rr.Get("/mine", h.Request.ListMine)
			rr.Post("/", h.Request.Create)
			rr.Delete("/{id}", h.Request.Delete)

			rr.Group(func(ar chi.Router) {
				ar.Use(requireAdmin)
				ar.Get("/", h.Request.ListAll)
				ar.Post("/{id}/approve", h.Request.Approve)
				ar.Post("/{id}/reject", h.Request.Reject)
			})
		})

		pr.Route("/recurring-requests", func(rr chi.Router) {
			rr.Get("/mine", h.Recurring.ListMine)
			rr.Post("/", h.Recurring.Create)
			rr.Delete("/{id}", h.Recurring.Delete)

			rr.Group(func(ar chi.Router) {
				ar.Use(requireAdmin)
				ar.Get("/", h.Recurring.ListAll)
				ar.Post("/{id}/approve", h.Recurring.Approve)
				ar.Post("/{id}/reject", h.Recurring.Reject)
			})
		})
	})
}
