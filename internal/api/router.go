package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/userexport/internal/api/handlers"
	"github.com/isdelr/userexport/internal/auth"
	"github.com/isdelr/userexport/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps groups what the router needs to build its handlers.
type RouterDeps struct {
	Issuer         *auth.Issuer
	Guard          *auth.Guard
	UserService    services.UserServiceProvider
	EventService   services.EventServiceProvider
	Export         *handlers.ExportHandler
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	SecureCookies  bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	userHandler := handlers.NewUserHandler(deps.UserService, deps.Issuer, deps.SecureCookies)
	eventHandler := handlers.NewEventHandler(deps.EventService)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	// The export page answers anonymous callers itself with a permission error.
	r.Group(func(r chi.Router) {
		r.Use(deps.Issuer.SessionMiddleware())
		r.Method(http.MethodGet, "/special/userexport", deps.Export)
		r.Method(http.MethodPost, "/special/userexport", deps.Export)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", userHandler.Login)
		r.Post("/auth/logout", userHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(deps.Issuer.JWTMiddleware())
			r.Get("/auth/me", userHandler.GetMe)

			r.With(handlers.RequireRight(deps.Guard, handlers.ExportRight)).
				Get("/events", eventHandler.GetRecent)
		})
	})

	return r
}
