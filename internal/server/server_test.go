package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fibertree/fibertree/internal/fiber"
	"github.com/fibertree/fibertree/internal/storage"
	"github.com/fibertree/fibertree/internal/tree"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	tr, err := tree.New(storage.NewMemory())
	if err != nil {
		t.Fatalf("tree.New: %v", err)
	}

	seed := []struct {
		path    []int
		outcome string
	}{
		{[]int{1, 2, 3}, fiber.Win},
		{[]int{1, 2, 4}, fiber.Loss},
		{[]int{0}, fiber.Win},
		{[]int{4}, fiber.Win},
		{[]int{8}, fiber.Win},
	}
	for _, s := range seed {
		ms := make([]fiber.Move, len(s.path))
		for i, v := range s.path {
			ms[i] = fiber.NewMove(v)
		}
		if err := tr.SimulatePath(ms, s.outcome, 1); err != nil {
			t.Fatalf("SimulatePath: %v", err)
		}
	}
	return New(tr, "test-version")
}

func get(t *testing.T, srv *Server, url string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", url, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body of %s: %v", url, err)
	}
	return w, body
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)
	w, body := get(t, srv, "/api/health")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	// root + 7 seeded nodes
	if body["fibers"] != float64(8) {
		t.Errorf("fibers = %v, want 8", body["fibers"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := testServer(t)
	w, body := get(t, srv, "/api/tree/stats")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["total_fibers"] != float64(8) {
		t.Errorf("total_fibers = %v, want 8", body["total_fibers"])
	}
	if body["max_depth"] != float64(3) {
		t.Errorf("max_depth = %v, want 3", body["max_depth"])
	}
}

func TestContinuationsEndpoint(t *testing.T) {
	srv := testServer(t)
	w, body := get(t, srv, "/api/tree/continuations?path=1,2&top_n=5")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	conts, ok := body["continuations"].([]any)
	if !ok || len(conts) != 2 {
		t.Fatalf("continuations = %v, want 2 entries", body["continuations"])
	}

	first := conts[0].(map[string]any)
	if first["win_rate"] != float64(1.0) {
		t.Errorf("first win_rate = %v, want 1.0", first["win_rate"])
	}
	if first["move"].(map[string]any)["value"] != float64(3) {
		t.Errorf("first move = %v, want 3", first["move"])
	}
}

func TestContinuationsUnresolvedPathIsEmpty(t *testing.T) {
	srv := testServer(t)
	w, body := get(t, srv, "/api/tree/continuations?path=42,43")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	conts, ok := body["continuations"].([]any)
	if !ok || len(conts) != 0 {
		t.Errorf("continuations = %v, want empty list", body["continuations"])
	}
}

func TestFrequencyEndpoint(t *testing.T) {
	srv := testServer(t)
	w, body := get(t, srv, "/api/tree/frequency?depth=1")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	freq, ok := body["frequency"].(map[string]any)
	if !ok {
		t.Fatalf("frequency = %v", body["frequency"])
	}
	// Depth 1 holds values 1, 0, 4, 8
	if len(freq) != 4 {
		t.Errorf("frequency has %d entries, want 4: %v", len(freq), freq)
	}
	if freq["1"] != float64(1) {
		t.Errorf("freq[1] = %v, want 1", freq["1"])
	}
}

func TestHeatmapEndpoint(t *testing.T) {
	srv := testServer(t)
	w, body := get(t, srv, "/api/tree/heatmap?size=3")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	grid, ok := body["heatmap"].([]any)
	if !ok || len(grid) != 3 {
		t.Fatalf("heatmap = %v, want 3 rows", body["heatmap"])
	}
	// Values 0, 4, 8 each visited once: the diagonal
	for r := 0; r < 3; r++ {
		row := grid[r].([]any)
		if row[r].(float64) < 1 {
			t.Errorf("heatmap[%d][%d] = %v, want >= 1", r, r, row[r])
		}
	}
}

func TestHeatmapRejectsBadSize(t *testing.T) {
	srv := testServer(t)
	w, _ := get(t, srv, "/api/tree/heatmap?size=0")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestExportEndpoint(t *testing.T) {
	srv := testServer(t)
	w, body := get(t, srv, "/api/tree/export")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	fibers, ok := body["fibers"].(map[string]any)
	if !ok || len(fibers) != 8 {
		t.Errorf("export fibers = %d entries, want 8", len(fibers))
	}
	if body["root"] != "root" {
		t.Errorf("root = %v, want root", body["root"])
	}
}

func TestCommonPathsEndpoint(t *testing.T) {
	srv := testServer(t)
	w, body := get(t, srv, "/api/tree/common?min_visits=1")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	paths, ok := body["paths"].([]any)
	if !ok || len(paths) == 0 {
		t.Fatalf("paths = %v", body["paths"])
	}
}
