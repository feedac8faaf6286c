package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"cryptodash/internal/auth"
	"cryptodash/internal/config"
	"cryptodash/internal/dashboard"
	"cryptodash/internal/http/handler"
	mw "cryptodash/internal/http/middleware"
	"cryptodash/internal/metrics"
	"cryptodash/internal/preferences"
)

const serviceName = "cryptodash"

var errNotConfigured = errors.New("services not configured")

// Services are the backends the routes call. When the database or the token
// secret is missing the corresponding error is set and the services may be
// nil; the API then answers 503 while /health keeps working.
type Services struct {
	Auth      *auth.Service
	Prefs     *preferences.Service
	Dashboard *dashboard.Service

	DatabaseErr error
	AuthErr     error
}

func (s Services) unavailable() error {
	switch {
	case s.DatabaseErr != nil:
		return s.DatabaseErr
	case s.AuthErr != nil:
		return s.AuthErr
	case s.Auth == nil || s.Prefs == nil || s.Dashboard == nil:
		return errNotConfigured
	}
	return nil
}

func NewRouter(cfg config.Config, s Services) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.AccessLog)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	health := &handler.HealthHandler{Service: serviceName, DatabaseErr: s.DatabaseErr, AuthErr: s.AuthErr}
	r.Get("/health", health.Health)
	r.Get("/", health.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(mw.Unavailable(s.unavailable()))

		ah := &handler.AuthHandler{Svc: s.Auth}
		r.Post("/auth/signup", ah.Signup)
		r.Post("/auth/login", ah.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.Auth, handler.WriteError))

			me := &handler.MeHandler{Prefs: s.Prefs}
			r.Get("/me", me.Me)

			ph := &handler.PreferencesHandler{Svc: s.Prefs}
			r.Get("/preferences", ph.Get)
			r.Post("/preferences", ph.Upsert)

			dh := &handler.DashboardHandler{Svc: s.Dashboard}
			r.Get("/dashboard", dh.Today)
			r.Post("/votes", dh.Vote)
		})
	})

	return r
}
