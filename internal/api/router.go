package api

import (
	"net/http"

	"github.com/dnayak/lifelog/internal/importer"
	"github.com/dnayak/lifelog/internal/limiter"
	"github.com/dnayak/lifelog/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Store bundles the persistence interfaces the router wires up.
// *store.PostgresStore satisfies it.
type Store interface {
	EventStore
	SchemaStore
}

// NewRouter creates and configures the HTTP router.
func NewRouter(st Store, pipe *importer.Pipeline, cache *store.TypeCache, lim *limiter.ImportLimiter) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	eventHandler := NewEventHandler(st, cache)
	importHandler := NewImportHandler(pipe, cache, lim)
	schemaHandler := NewSchemaHandler(st)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler())

		// Everything below needs an authenticated owner.
		r.Group(func(r chi.Router) {
			r.Use(requireOwner)

			r.Route("/events", func(r chi.Router) {
				r.Post("/", eventHandler.Create)
				r.Get("/", eventHandler.List)

				r.Post("/import", importHandler.Batch)
				r.Post("/import/csv", importHandler.CSV)
				r.Post("/import/preview", importHandler.Preview)

				r.Get("/{id}", eventHandler.Get)
				r.Patch("/{id}", eventHandler.Update)
				r.Delete("/{id}", eventHandler.Delete)
			})

			r.Get("/event-types", eventHandler.ListTypes)

			r.Route("/schemas", func(r chi.Router) {
				r.Post("/", schemaHandler.Create)
				r.Get("/", schemaHandler.List)
				r.Get("/{id}", schemaHandler.Get)
				r.Patch("/{id}", schemaHandler.Update)
				r.Delete("/{id}", schemaHandler.Delete)
			})
		})
	})

	return r
}
