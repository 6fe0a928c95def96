package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fibertree/fibertree/internal/fiber"
	"github.com/fibertree/fibertree/internal/tree"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	div, err := s.tree.PathDiversity()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, div)
}

func (s *Server) handleContinuations(w http.ResponseWriter, r *http.Request) {
	path := parsePath(r.URL.Query().Get("path"))
	topN := intParam(r, "top_n", 5)
	minVisits := intParam(r, "min_visits", 0)

	conts, err := s.tree.BestContinuation(path, topN, uint64(minVisits))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if conts == nil {
		conts = []tree.Continuation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"continuations": conts})
}

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	depth := intParam(r, "depth", 1)
	if depth < 0 {
		writeError(w, http.StatusBadRequest, "depth must be non-negative")
		return
	}
	minVisits := intParam(r, "min_visits", 0)

	freq, err := s.tree.MoveFrequency(depth, uint64(minVisits))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"depth": depth, "frequency": freq})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	size := intParam(r, "size", 15)
	if size <= 0 || size > 64 {
		writeError(w, http.StatusBadRequest, "size must be in 1..64")
		return
	}

	grid, err := s.tree.MoveHeatmap(size)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"board_size": size, "heatmap": grid})
}

func (s *Server) handleCommonPaths(w http.ResponseWriter, r *http.Request) {
	minVisits := intParam(r, "min_visits", 1)

	paths, err := s.tree.CommonPaths(uint64(minVisits))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paths": paths})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.tree.Export(w); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// parsePath turns a comma-separated query value into moves.
func parsePath(raw string) []fiber.Move {
	if raw == "" {
		return nil
	}
	segments := strings.Split(raw, ",")
	path := make([]fiber.Move, 0, len(segments))
	for _, seg := range segments {
		path = append(path, fiber.MoveFromText(strings.TrimSpace(seg)))
	}
	return path
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
