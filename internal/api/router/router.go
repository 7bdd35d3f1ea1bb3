// Package router assembles the HTTP surface: public availability and booking
// endpoints, admin-only listing routes, health, and metrics.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/hazelgrove/studio-scheduler/internal/http/middleware"
	"github.com/hazelgrove/studio-scheduler/internal/scheduling"
	"github.com/hazelgrove/studio-scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	SchedulingHandler  *scheduling.Handler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// PublicRatePerSecond throttles unauthenticated booking traffic per IP.
	// Zero disables rate limiting.
	PublicRatePerSecond float64
	PublicRateBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public booking endpoints
	r.Group(func(public chi.Router) {
		if cfg.PublicRatePerSecond > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.PublicRatePerSecond, cfg.PublicRateBurst))
		}
		public.Get("/availability", cfg.SchedulingHandler.Availability)
		public.Route("/appointments", func(r chi.Router) {
			r.Post("/", cfg.SchedulingHandler.Book)
			r.Get("/{id}", cfg.SchedulingHandler.Get)
			r.Post("/{id}/reschedule", cfg.SchedulingHandler.Reschedule)
			r.Post("/{id}/cancel", cfg.SchedulingHandler.Cancel)
		})
		public.Route("/recurring", func(r chi.Router) {
			r.Post("/", cfg.SchedulingHandler.CreateRecurring)
			r.Get("/{id}", cfg.SchedulingHandler.GetRecurring)
			r.Post("/{id}/cancel", cfg.SchedulingHandler.CancelRecurring)
		})
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/appointments", cfg.SchedulingHandler.List)
		})
	}

	return r
}
