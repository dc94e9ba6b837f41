package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// buildRouter constructs the chi router with all routes and middleware.
func (s *server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.corsMiddleware())

	if s.cfg.API.Server.RateLimit.Enabled {
		if s.rateLimits == nil {
			s.rateLimits = newRateLimiterMap(
				s.cfg.API.Server.RateLimit.RequestsPerMinute,
			)
		}

		r.Use(s.rateLimitMiddleware(s.rateLimits))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/baselines", func(r chi.Router) {
			r.Get("/", s.handleListBaselines)
			r.Get("/{file}", s.handleGetBaseline)
		})

		r.Get("/compare", s.handleCompare)
		r.Get("/trends", s.handleTrends)
	})

	return r
}

// corsMiddleware builds the CORS handler from configured origins.
func (s *server) corsMiddleware() func(http.Handler) http.Handler {
	origins := s.cfg.API.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}
