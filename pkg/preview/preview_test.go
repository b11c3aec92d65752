package preview

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nanofab/descript/pkg/pipeline"
)

const jobScript = "% File generated by descript\nInvertZAxis 1\nMoveStageX 0.0\n"

// newRunDir builds a run directory with a manifest and job script, the
// way a completed pipeline run leaves it behind.
func newRunDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "chip_job.gwl"), []byte(jobScript), 0o644); err != nil {
		t.Fatal(err)
	}

	m := pipeline.Manifest{
		RunID:     "run-1",
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Layout:    filepath.Join(dir, "chip.gds"),
		Library:   "chip",
		Topcell:   "chip_top",
		Matcher:   "layer",
		JobFile:   "chip_job.gwl",
		Targets: []pipeline.ManifestTarget{
			{Cell: "pillar", Magnification: 1},
			{Cell: "pillar", X: 10, Y: 5, Magnification: 1, Include: "1_pillar/1_pillar_output/pillar_data.gwl"},
		},
		Stats: pipeline.Stats{Cells: 2, Targets: 2, DistinctRecipes: 1, SlicerRuns: 1},
	}
	if err := pipeline.WriteManifest(filepath.Join(dir, pipeline.ManifestName), m); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newServer(dir string) *Server {
	return &Server{Dir: dir, Logger: log.NewWithOptions(io.Discard, log.Options{})}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRoutes(t *testing.T) {
	h := newServer(newRunDir(t)).Handler()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantType   string
		wantBody   string
	}{
		{
			name:       "index",
			path:       "/",
			wantStatus: http.StatusOK,
			wantType:   "text/html; charset=utf-8",
			wantBody:   "descript preview",
		},
		{
			name:       "health",
			path:       "/health",
			wantStatus: http.StatusOK,
			wantType:   "application/json",
			wantBody:   `"status":"ok"`,
		},
		{
			name:       "job script",
			path:       "/api/job",
			wantStatus: http.StatusOK,
			wantType:   "text/plain; charset=utf-8",
			wantBody:   "% File generated by descript",
		},
		{
			name:       "unknown route",
			path:       "/nope",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.path)
			if rec.Code != tt.wantStatus {
				t.Fatalf("GET %s status = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
			if tt.wantType != "" {
				if got := rec.Header().Get("Content-Type"); got != tt.wantType {
					t.Errorf("GET %s Content-Type = %q, want %q", tt.path, got, tt.wantType)
				}
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("GET %s body = %q, want it to contain %q", tt.path, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestGetRun(t *testing.T) {
	h := newServer(newRunDir(t)).Handler()

	rec := get(t, h, "/api/run")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var m pipeline.Manifest
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if m.RunID != "run-1" {
		t.Errorf("RunID = %q, want %q", m.RunID, "run-1")
	}
	if m.Library != "chip" || m.Topcell != "chip_top" {
		t.Errorf("library/topcell = %q/%q, want chip/chip_top", m.Library, m.Topcell)
	}
	if len(m.Targets) != 2 {
		t.Fatalf("len(Targets) = %d, want 2", len(m.Targets))
	}
	if m.Stats.SlicerRuns != 1 {
		t.Errorf("Stats.SlicerRuns = %d, want 1", m.Stats.SlicerRuns)
	}
}

func TestGetTargets(t *testing.T) {
	h := newServer(newRunDir(t)).Handler()

	rec := get(t, h, "/api/targets")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var targets []pipeline.ManifestTarget
	if err := json.Unmarshal(rec.Body.Bytes(), &targets); err != nil {
		t.Fatalf("decode targets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(targets))
	}
	if targets[1].X != 10 || targets[1].Y != 5 {
		t.Errorf("targets[1] at (%v, %v), want (10, 5)", targets[1].X, targets[1].Y)
	}
	if targets[1].Include == "" {
		t.Error("targets[1].Include is empty")
	}
}

func TestMissingManifest(t *testing.T) {
	h := newServer(t.TempDir()).Handler()

	for _, path := range []string{"/api/run", "/api/targets", "/api/job", "/graph.svg"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, h, path)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("GET %s status = %d, want %d", path, rec.Code, http.StatusNotFound)
			}
			if !strings.Contains(rec.Body.String(), "manifest") {
				t.Errorf("GET %s body = %q, want it to mention the manifest", path, rec.Body.String())
			}
		})
	}
}

func TestGetJobRejectsTraversal(t *testing.T) {
	dir := newRunDir(t)

	// A hand-edited manifest pointing outside the run directory must
	// not be served.
	outside := filepath.Join(filepath.Dir(dir), "outside.gwl")
	if err := os.WriteFile(outside, []byte("Write\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := pipeline.ReadManifest(filepath.Join(dir, pipeline.ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	m.JobFile = "../outside.gwl"
	if err := pipeline.WriteManifest(filepath.Join(dir, pipeline.ManifestName), m); err != nil {
		t.Fatal(err)
	}

	rec := get(t, newServer(dir).Handler(), "/api/job")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "Write") {
		t.Error("job handler served a file outside the run directory")
	}
}

func TestGraphMissingLayout(t *testing.T) {
	// The manifest points at a layout file that was never written, so
	// the graph route reports it as missing.
	h := newServer(newRunDir(t)).Handler()

	rec := get(t, h, "/graph.svg")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusNotFound, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "chip.gds") {
		t.Errorf("body = %q, want it to name the layout file", rec.Body.String())
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	srv := newServer(newRunDir(t))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("ListenAndServe() = %v, want nil after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down after cancel")
	}
}

func TestListenAndServeBadAddr(t *testing.T) {
	srv := newServer(newRunDir(t))

	err := srv.ListenAndServe(context.Background(), "127.0.0.1:-1")
	if err == nil {
		t.Fatal("ListenAndServe() = nil, want listen error")
	}
}
