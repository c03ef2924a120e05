package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ethpandaops/smbench/pkg/render"
)

// buildRouter constructs the chi router with all routes and middleware.
func (s *server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.corsMiddleware())

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.Server.RateLimit.Enabled {
			r.Use(s.rateLimitMiddleware(s.cfg.Server.RateLimit.RequestsPerMinute))
		}

		r.Get("/health", s.handleHealth)
		r.Get("/config", s.handleConfig)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/runs/{id}", s.handleRun)

		// Raw documents (local filesystem or S3 presigned URLs).
		r.Get("/files/*", s.handleFileRequest)

		r.Route("/compare/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Post("/{id}/toggle", s.handleToggle)
			r.Put("/{id}/search", s.handleSearch)
			r.Put("/{id}/layout", s.handleLayout)
			r.Delete("/{id}", s.handleDeleteSession)
		})

		// Index endpoints (when indexing is enabled).
		if s.indexStore != nil {
			r.Route("/index", func(r chi.Router) {
				r.Get("/", s.handleIndex)
				r.Get("/{id}", s.handleIndexRun)
			})
		}
	})

	// Pages.
	r.Get("/", s.handleLeaderboardPage)
	r.Get("/compare", s.handleComparePage)
	r.Get("/run/{id}", s.handleRunPage)

	prefix := s.cfg.Site.BasePath
	r.Handle("/static/*", http.StripPrefix(prefix+"/static/",
		http.FileServerFS(render.StaticFS())))

	if s.logoServer != nil {
		r.Get("/logos/*", s.handleLogo)
	}

	if prefix == "" {
		return r
	}

	root := chi.NewRouter()
	root.Mount(prefix, r)

	return root
}

// corsMiddleware returns a CORS handler configured from the server config.
func (s *server) corsMiddleware() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}

	origins := s.cfg.Server.CORSOrigins

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		opts.AllowOriginFunc = func(_ *http.Request, _ string) bool {
			return true
		}
	} else {
		opts.AllowedOrigins = origins
	}

	return cors.Handler(opts)
}
