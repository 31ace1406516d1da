package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skylane-ai/aerocontext/internal/api"
	"github.com/skylane-ai/aerocontext/internal/api/handlers"
	"github.com/skylane-ai/aerocontext/internal/api/middleware"
)

type RouterConfig struct {
	SearchHandler   *handlers.SearchHandler
	DocumentHandler *handlers.DocumentHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", cfg.SearchHandler.Search)

		r.Post("/responses", cfg.SearchHandler.StoreResponse)
		r.Post("/responses/lookup", cfg.SearchHandler.LookupResponse)

		r.Get("/cache/stats", cfg.SearchHandler.CacheStats)
		r.Delete("/cache", cfg.SearchHandler.ClearCache)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Ingest)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
			r.Get("/{id}/analysis", cfg.DocumentHandler.Analysis)
			r.Get("/{id}/chunks", cfg.DocumentHandler.Chunks)
			r.Post("/{id}/reprocess", cfg.DocumentHandler.Reprocess)
		})
	})

	return r
}
