// Package server exposes the engine's read surface over HTTP. Every
// route is a pure query; mutation stays with the process that owns the
// tree.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/fibertree/fibertree/internal/tree"
)

// Server is the fibertree read-only HTTP API server.
type Server struct {
	tree    *tree.Tree
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server over the given tree.
func New(t *tree.Tree, version string) *Server {
	s := &Server{
		tree:    t,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/tree", func(r chi.Router) {
			r.Get("/stats", s.handleStats)
			r.Get("/continuations", s.handleContinuations)
			r.Get("/frequency", s.handleFrequency)
			r.Get("/heatmap", s.handleHeatmap)
			r.Get("/common", s.handleCommonPaths)
			r.Get("/export", s.handleExport)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	size, err := s.tree.Size()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"fibers":  size,
		"tree_ok": err == nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if status >= http.StatusInternalServerError {
		log.Error().Msgf("query failed: %s", msg)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
