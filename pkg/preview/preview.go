// Package preview serves a completed run directory over HTTP so a job
// can be inspected before it is sent to the printer.
//
// The server is read-only. Everything it shows comes from the manifest
// written next to the job script, plus the layout file the manifest
// points at:
//
//   - GET /            built-in HTML page rendering the run summary
//   - GET /health      liveness probe
//   - GET /api/run     the full run manifest as JSON
//   - GET /api/targets the resolved print targets as JSON
//   - GET /api/job     the assembled job script as plain text
//   - GET /graph.svg   the cell hierarchy with print targets highlighted
//
// # Usage
//
//	srv := &preview.Server{Dir: "out"}
//	if err := srv.ListenAndServe(ctx, ":8734"); err != nil {
//		log.Fatal(err)
//	}
package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/nanofab/descript/pkg/config"
	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/gds"
	"github.com/nanofab/descript/pkg/layout"
	"github.com/nanofab/descript/pkg/layout/match"
	"github.com/nanofab/descript/pkg/pipeline"
)

// shutdownTimeout bounds how long a graceful shutdown may take before
// open connections are dropped.
const shutdownTimeout = 5 * time.Second

// ==============================================================================
// Server
// ==============================================================================

// Server exposes one run directory. The zero value plus Dir is usable.
type Server struct {
	// Dir is the run directory holding manifest.json and the job script.
	Dir string

	// Config supplies matcher parameters for the graph view. A zero
	// config falls back to the built-in defaults.
	Config config.Config

	// Logger receives request logs. Nil uses the default logger.
	Logger *log.Logger
}

// Handler builds the route table. It is exposed separately from
// ListenAndServe so tests can drive the server without a socket.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/", s.getIndex)
	r.Get("/health", s.getHealth)
	r.Get("/api/run", s.getRun)
	r.Get("/api/targets", s.getTargets)
	r.Get("/api/job", s.getJob)
	r.Get("/graph.svg", s.getGraph)

	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down
// gracefully. A listener that fails to start returns immediately.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()
	s.logger().Info("preview server listening", "addr", addr, "dir", s.Dir)

	select {
	case err := <-serverErrors:
		return errors.Wrap(errors.ErrCodeInternal, err, "preview server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return srv.Close()
		}
		return nil
	}
}

func (s *Server) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

func (s *Server) config() config.Config {
	if s.Config.IsZero() {
		return config.Default()
	}
	return s.Config
}

// manifest reloads the manifest on every request so the page tracks
// re-runs into the same directory without a server restart.
func (s *Server) manifest() (pipeline.Manifest, error) {
	return pipeline.ReadManifest(filepath.Join(s.Dir, pipeline.ManifestName))
}

// ==============================================================================
// Handlers
// ==============================================================================

func (s *Server) getIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	m, err := s.manifest()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, m)
}

func (s *Server) getTargets(w http.ResponseWriter, r *http.Request) {
	m, err := s.manifest()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, m.Targets)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	m, err := s.manifest()
	if err != nil {
		s.fail(w, err)
		return
	}
	// The manifest is plain JSON on disk; never join an edited path
	// that could leave the run directory.
	if err := errors.ValidateRunRelPath(m.JobFile); err != nil {
		s.fail(w, err)
		return
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, m.JobFile))
	if err != nil {
		s.fail(w, errors.Wrap(errors.ErrCodeNotFound, err, "read job script %s", m.JobFile))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}

// getGraph re-reads the layout named in the manifest and renders the
// cell hierarchy as SVG. The layout must still be readable from where
// the server runs; a moved file turns into a 404.
func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	m, err := s.manifest()
	if err != nil {
		s.fail(w, err)
		return
	}

	lib, err := gds.ReadFile(m.Layout)
	if err != nil {
		s.fail(w, err)
		return
	}

	name := m.Matcher
	if name == "" {
		name = s.config().Layout.Matcher
	}
	matcher, err := match.ByName(name, s.config().MatcherOptions(name))
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := matcher.Setup(lib); err != nil {
		s.fail(w, err)
		return
	}
	labels := layout.ApplyLabels(lib, matcher.Match)

	svg, err := layout.RenderSVG(layout.ToDOT(lib, layout.DOTOptions{
		Detailed: r.URL.Query().Get("detailed") == "1",
		Labels:   labels,
	}))
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// ==============================================================================
// HTTP Plumbing
// ==============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger().Error("response encode failed", "err", err)
	}
}

// fail writes the error with a status derived from its code.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	}
	s.logger().Error("request failed", "err", err)
	http.Error(w, errors.UserMessage(err), status)
}

// logRequests logs one line per request with the resulting status.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger().Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ==============================================================================
// Index Page
// ==============================================================================

// indexHTML is the built-in preview page. It renders the run summary
// and target table client-side from the JSON API, so the Go side stays
// a plain file server.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>descript preview</title>
  <style>
    body { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; margin: 2rem auto; max-width: 64rem; color: #1a1a2e; }
    h1 { font-size: 1.3rem; }
    h2 { font-size: 1rem; margin-top: 2rem; }
    table { border-collapse: collapse; width: 100%; font-size: 0.85rem; }
    th, td { text-align: left; padding: 0.3rem 0.8rem 0.3rem 0; border-bottom: 1px solid #ddd; }
    dl { display: grid; grid-template-columns: max-content auto; gap: 0.2rem 1.2rem; font-size: 0.85rem; }
    dt { color: #666; }
    dd { margin: 0; }
    img { max-width: 100%; border: 1px solid #ddd; margin-top: 0.5rem; }
    a { color: #3056d3; }
    .err { color: #b00020; }
  </style>
</head>
<body>
  <h1>descript preview</h1>
  <dl id="run"></dl>
  <h2>Print targets</h2>
  <table id="targets">
    <thead><tr><th>#</th><th>Cell</th><th>X</th><th>Y</th><th>Rot</th><th>Mag</th><th>Mirror</th><th>Include</th></tr></thead>
    <tbody></tbody>
  </table>
  <h2>Job script</h2>
  <p><a href="/api/job">View assembled job script</a></p>
  <h2>Cell hierarchy</h2>
  <img src="/graph.svg" alt="cell hierarchy">
  <script>
    async function load() {
      const res = await fetch('/api/run');
      if (!res.ok) {
        document.getElementById('run').innerHTML =
          '<dt class="err">error</dt><dd class="err">' + await res.text() + '</dd>';
        return;
      }
      const run = await res.json();
      const dl = document.getElementById('run');
      const rows = [
        ['library', run.library], ['topcell', run.topcell],
        ['layout', run.layout], ['matcher', run.matcher],
        ['run id', run.run_id], ['created', run.created_at],
        ['targets', run.stats.targets], ['slicer runs', run.stats.slicer_runs],
        ['cache hits', run.stats.cache_hits],
      ];
      dl.innerHTML = rows.map(([k, v]) => '<dt>' + k + '</dt><dd>' + v + '</dd>').join('');
      const tbody = document.querySelector('#targets tbody');
      tbody.innerHTML = (run.targets || []).map((t, i) =>
        '<tr><td>' + i + '</td><td>' + t.cell + '</td><td>' + t.x + '</td><td>' + t.y +
        '</td><td>' + t.rotation_deg + '</td><td>' + t.magnification +
        '</td><td>' + (t.mirror ? 'yes' : '') + '</td><td>' + (t.include || '') + '</td></tr>').join('');
    }
    load();
  </script>
</body>
</html>
`
