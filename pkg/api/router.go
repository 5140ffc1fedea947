// Package api provides HTTP API server components.
package api

import (
	"github.com/0xReLogic/Cognio/config"
	"github.com/0xReLogic/Cognio/pkg/api/handlers"
	"github.com/0xReLogic/Cognio/pkg/api/middleware"
	"github.com/0xReLogic/Cognio/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Memory handles the memory endpoints
	Memory *handlers.MemoryHandler

	// Health handles health check and service info endpoints
	Health *handlers.HealthHandler

	// Metrics is the optional HTTP metrics recorder
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	// Register global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	// Add metrics middleware if provided
	if handlers.Metrics != nil {
		r.Use(middleware.Metrics(handlers.Metrics))
	}

	r.Use(middleware.CORS(&cfg.Server.CORS))
	r.Use(middleware.Timeout(cfg.Server.HTTP.ReadTimeout))
	r.Use(middleware.RateLimit(&cfg.Server.RateLimit))

	// Register routes
	RegisterRoutes(r, handlers)

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, handlers *Handlers) {
	if handlers.Memory != nil {
		r.Route("/memory", func(r chi.Router) {
			r.Post("/save", handlers.Memory.Save)
			r.Get("/search", handlers.Memory.Search)
			r.Get("/list", handlers.Memory.List)
			r.Get("/stats", handlers.Memory.Stats)
			r.Get("/export", handlers.Memory.Export)
			r.Delete("/bulk", handlers.Memory.BulkDelete)
			r.Post("/reembed", handlers.Memory.Reembed)
			r.Get("/{id}", handlers.Memory.Get)
			r.Delete("/{id}", handlers.Memory.Delete)
			r.Post("/{id}/archive", handlers.Memory.Archive)
		})
	}

	if handlers.Health != nil {
		r.Get("/", handlers.Health.Info)
		r.Get("/health", handlers.Health.Health)
		r.Get("/ready", handlers.Health.Ready)
	}
}
