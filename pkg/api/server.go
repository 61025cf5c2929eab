// Package api provides the HTTP API server for score storage and layout
// computation.
//
// # Endpoints
//
//	GET  /healthz                  - liveness probe
//	POST /v1/layout                - compute a layout for an inline score
//	POST /v1/scores                - store a score document
//	GET  /v1/scores                - list stored scores
//	GET  /v1/scores/{id}           - fetch a stored score
//	DELETE /v1/scores/{id}         - delete a stored score
//	GET  /v1/scores/{id}/layout    - compute a layout for a stored score
//
// Layout computation goes through the shared pipeline Runner, so API results
// are cached and byte-identical to CLI output for the same input.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aylabs/musicore/pkg/observability"
	"github.com/aylabs/musicore/pkg/pipeline"
	"github.com/aylabs/musicore/pkg/store"
)

// Server wires the HTTP handlers to the pipeline runner and the score store.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
}

// NewServer creates a server. A nil store disables the /v1/scores endpoints'
// persistence backend and is only useful in tests; callers should pass a
// MemoryStore at minimum.
func NewServer(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	if st == nil {
		st = store.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: st, logger: logger}
}

// Router builds the chi router with all routes and middleware mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)

		r.Route("/scores", func(r chi.Router) {
			r.Post("/", s.handleCreateScore)
			r.Get("/", s.handleListScores)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetScore)
				r.Delete("/", s.handleDeleteScore)
				r.Get("/layout", s.handleScoreLayout)
			})
		})
	})

	return r
}

// logRequests logs each request with method, path, status, and duration,
// and emits HTTP observability events.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.Host, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.Host, r.URL.Path, ww.Status(), time.Since(start))
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
