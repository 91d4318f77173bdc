// Package server exposes a scan over a read-only HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/classscan/pkg/buildinfo"
	"github.com/matzehuels/classscan/pkg/classgraph"
	errs "github.com/matzehuels/classscan/pkg/errors"
	pkgio "github.com/matzehuels/classscan/pkg/io"
	"github.com/matzehuels/classscan/pkg/observability"
	"github.com/matzehuels/classscan/pkg/render/nodelink"
)

// Server serves the most recent snapshot. Update swaps the snapshot
// atomically, so watch mode can refresh a running server.
type Server struct {
	logger *log.Logger
	router chi.Router

	mu   sync.RWMutex
	view *view
}

// view is an indexed snapshot.
type view struct {
	snap     *pkgio.Snapshot
	graph    *classgraph.Graph
	classes  map[string]*pkgio.Class
	outgoing map[string][]pkgio.Edge
	incoming map[string][]pkgio.Edge
	updated  time.Time
}

// New creates a server without a snapshot; requests for data return 503
// until Update is called.
func New(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{logger: logger}
	s.router = s.routes()
	return s
}

// Update replaces the served snapshot.
func (s *Server) Update(snap *pkgio.Snapshot, g *classgraph.Graph) {
	v := &view{
		snap:     snap,
		graph:    g,
		classes:  make(map[string]*pkgio.Class, len(snap.Classes)),
		outgoing: make(map[string][]pkgio.Edge),
		incoming: make(map[string][]pkgio.Edge),
		updated:  time.Now(),
	}
	for i := range snap.Classes {
		v.classes[snap.Classes[i].Name] = &snap.Classes[i]
	}
	for _, e := range snap.Edges {
		v.outgoing[e.From] = append(v.outgoing[e.From], e)
		v.incoming[e.To] = append(v.incoming[e.To], e)
	}

	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

func (s *Server) current() *view {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireView)
		r.Get("/summary", s.handleSummary)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/classes", s.handleClasses)
		r.Get("/classes/{name}", s.handleClass)
		r.Group(func(r chi.Router) {
			r.Use(s.requireDependencies)
			r.Get("/classes/{name}/dependencies", s.handleDependencies)
			r.Get("/classes/{name}/dependents", s.handleDependents)
			r.Get("/cycles", s.handleCycles)
		})
		r.Get("/failures", s.handleFailures)
		r.Get("/graph.dot", s.handleDOT)
	})
	return r
}

// observe reports requests to the HTTP hooks and logs them at debug.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Header().Set("Server", buildinfo.UserAgent())
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", dur,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) requireView(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.current() == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "no scan available yet"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireDependencies answers 404 for the dependency views of a scan that
// ran without dependency tracking.
func (s *Server) requireDependencies(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.current().snap.Dependencies {
			writeError(w, errs.New(errs.ErrCodeNotFound, "dependency tracking was disabled for this scan"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Summary is the response of GET /api/v1/summary.
type Summary struct {
	ScanID       string    `json:"scan_id,omitempty"`
	Classes      int       `json:"classes"`
	Externals    int       `json:"externals"`
	Edges        int       `json:"edges"`
	Failures     int       `json:"failures"`
	Dependencies bool      `json:"dependencies"`
	Updated      time.Time `json:"updated"`
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	v := s.current()
	writeJSON(w, http.StatusOK, Summary{
		ScanID:       v.snap.ScanID,
		Classes:      len(v.graph.Classes()),
		Externals:    len(v.graph.Externals()),
		Edges:        v.graph.EdgeCount(),
		Failures:     len(v.snap.Failures),
		Dependencies: v.snap.Dependencies,
		Updated:      v.updated,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.current().snap)
}

// ClassEntry is one row of GET /api/v1/classes.
type ClassEntry struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	State string `json:"state"`
}

// handleClasses lists classes. Query parameters: package (prefix match on
// whole segments), kind, and external=true to include unscanned classes.
func (s *Server) handleClasses(w http.ResponseWriter, r *http.Request) {
	v := s.current()
	q := r.URL.Query()
	pkg := q.Get("package")
	if err := errs.ValidatePackageName(pkg); err != nil {
		writeError(w, err)
		return
	}
	kind := q.Get("kind")
	external, _ := strconv.ParseBool(q.Get("external"))

	out := []ClassEntry{}
	for _, c := range v.snap.Classes {
		if !external && c.State != classgraph.StateResolved.String() {
			continue
		}
		if kind != "" && c.Kind != kind {
			continue
		}
		if pkg != "" && !strings.HasPrefix(c.Name, pkg+".") {
			continue
		}
		out = append(out, ClassEntry{Name: c.Name, Kind: c.Kind, State: c.State})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*view, string, bool) {
	v := s.current()
	name := chi.URLParam(r, "name")
	if err := errs.ValidateClassName(name); err != nil {
		writeError(w, err)
		return nil, "", false
	}
	if _, ok := v.classes[name]; !ok {
		writeError(w, errs.New(errs.ErrCodeNotFound, "class not found: %s", name))
		return nil, "", false
	}
	return v, name, true
}

func (s *Server) handleClass(w http.ResponseWriter, r *http.Request) {
	if v, name, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, v.classes[name])
	}
}

func (s *Server) handleDependencies(w http.ResponseWriter, r *http.Request) {
	if v, name, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, nonNil(v.outgoing[name]))
	}
}

func (s *Server) handleDependents(w http.ResponseWriter, r *http.Request) {
	if v, name, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, nonNil(v.incoming[name]))
	}
}

func (s *Server) handleCycles(w http.ResponseWriter, _ *http.Request) {
	cycles := s.current().graph.Cycles()
	if cycles == nil {
		cycles = [][]string{}
	}
	writeJSON(w, http.StatusOK, cycles)
}

func (s *Server) handleFailures(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.current().snap.Failures))
}

// handleDOT renders the graph as DOT. Query parameters: external=true,
// labels=true, cluster=true.
func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := nodelink.Options{}
	opts.IncludeExternal, _ = strconv.ParseBool(q.Get("external"))
	opts.EdgeLabels, _ = strconv.ParseBool(q.Get("labels"))
	opts.ClusterPackages, _ = strconv.ParseBool(q.Get("cluster"))
	if kinds := q.Get("kinds"); kinds != "" {
		opts.Kinds = classgraph.ParseEdgeKind(strings.ReplaceAll(kinds, ",", "|"))
	}

	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(nodelink.ToDOT(s.current().graph, opts)))
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	status := http.StatusInternalServerError
	switch {
	case code == errs.ErrCodeNotFound:
		status = http.StatusNotFound
	case strings.HasPrefix(string(code), "INVALID_"):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorBody{Error: errs.UserMessage(err), Code: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
