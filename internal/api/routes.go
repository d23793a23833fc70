package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	// Cache clears are cheap to request and expensive to recover from,
	// so DELETE gets its own bucket: burst of 100, then 10/second.
	deleteRateLimiter := NewDeleteRateLimiter(100, 100*time.Millisecond)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))
			r.Post("/recommendations", h.Recommendations)
			r.Post("/feedback", h.Feedback)
			r.Post("/intents/{id}/refine", h.RefineIntent)
			r.With(deleteRateLimiter.Middleware).Delete("/context", h.ClearContexts)
			r.With(deleteRateLimiter.Middleware).Delete("/context/{sessionID}", h.ClearContext)
		})
	})

	return r
}
