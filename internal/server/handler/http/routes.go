package http

import (
	"net/http"

	"github.com/atinyakov/flowerdaily/internal/metrics"
	"github.com/atinyakov/flowerdaily/internal/middleware"
	"github.com/atinyakov/flowerdaily/internal/models"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Auth     *AuthHandler
	Flowers  *FlowerHandler
	Users    *UserHandler
	Settings *SettingsHandler
}

// NewRouter constructs the HTTP handler of the flower server.
//
// Routes:
//
//	POST   /api/flowers/random          public random selection
//	GET    /api/flowers/{id}            public flower card
//	GET    /login, POST /login          login (redirects when already logged in)
//	POST   /logout                      logout
//	/admin/flowers...                   catalogue, admin and editor
//	/admin/users..., /admin/settings... admin only
//	GET    /metrics                     Prometheus exposition
//
// Middleware chain (applied in order):
//  1. RequestID, Recoverer
//  2. WithRequestLogging(logger)
//  3. metrics instrumentation
//  4. AllowContentType("application/json") for requests with a body
//  5. SessionGate(sessions, logger)
func NewRouter(
	h Handlers,
	sessions middleware.SessionLookup,
	m *metrics.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(m.Instrument)
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.SessionGate(sessions, logger))

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api/flowers", func(r chi.Router) {
		r.Post("/random", h.Flowers.Random)
		r.Get("/{id}", h.Flowers.Get)
	})

	r.Get("/login", h.Auth.LoginForm)
	r.Post("/login", h.Auth.Login)
	r.Post("/logout", h.Auth.Logout)

	// Everything below is reachable only with a session; SessionGate
	// redirects anonymous requests to /login.
	r.Route("/admin", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/admin/flowers", http.StatusTemporaryRedirect)
		})

		r.Route("/flowers", func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleEditor))
			r.Get("/", h.Flowers.List)
			r.Post("/", h.Flowers.Create)
			r.Get("/{id}", h.Flowers.Get)
			r.Put("/{id}", h.Flowers.Update)
			r.Delete("/{id}", h.Flowers.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))

			r.Get("/users", h.Users.List)
			r.Post("/users", h.Users.Create)
			r.Delete("/users/{id}", h.Users.Delete)
			r.Put("/users/{id}/password", h.Users.ResetPassword)

			r.Get("/settings", h.Settings.List)
			r.Get("/settings/{key}", h.Settings.Get)
			r.Put("/settings/{key}", h.Settings.Put)
			r.Delete("/settings/{key}", h.Settings.Delete)
		})
	})

	return r
}
