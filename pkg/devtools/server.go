package devtools

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/reconciler/pkg/memdom"
	"github.com/vango-dev/reconciler/pkg/metrics"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/render"
)

// ErrNotMemdom is returned by Track for roots that do not render into a
// memdom container.
var ErrNotMemdom = errors.New("devtools: root does not render into a memdom container")

// Server is the inspector.
type Server struct {
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	hub      *Hub
	history  int
	router   chi.Router

	mu    sync.RWMutex
	order []string
	roots map[string]*memdom.Container
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithHistory sets how many commit events /commits keeps.
func WithHistory(n int) Option {
	return func(s *Server) {
		s.history = n
	}
}

// New creates an inspector.
func New(opts ...Option) *Server {
	s := &Server{
		logger: slog.Default(),
		roots:  make(map[string]*memdom.Container),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger, s.history)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/roots", s.handleRoots)
	r.Get("/tree", s.handleTree)
	r.Get("/html", s.handleHTML)
	r.Get("/commits", s.handleCommits)
	r.Get("/ws", s.hub.HandleWebSocket)
	if s.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.gatherer))
	}
	return r
}

// Handler returns the HTTP handler of the inspector.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the commit stream hub.
func (s *Server) Hub() *Hub { return s.hub }

// Track makes root visible to the inspector.
func (s *Server) Track(root *reconciler.Root) error {
	c, ok := root.Container().(*memdom.Container)
	if !ok {
		return ErrNotMemdom
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.roots[root.ID()]; !exists {
		s.order = append(s.order, root.ID())
	}
	s.roots[root.ID()] = c
	return nil
}

// Observe publishes a commit to the stream. It is meant to be passed to
// reconciler.WithCommitObserver and runs on the reconciler's goroutine.
func (s *Server) Observe(info reconciler.CommitInfo) {
	ev := CommitEvent{
		ID:        info.ID,
		Root:      info.Root.ID(),
		Lanes:     info.Lanes.String(),
		Mutations: info.Mutations(),
		Duration:  info.Duration.String(),
	}
	if c, ok := info.Root.Container().(*memdom.Container); ok {
		batch := c.LastBatch()
		ev.Seq = batch.Seq
		ev.Ops = batch.Strings()
	}
	s.hub.Publish(ev)
}

// container resolves the ?root= parameter, defaulting to the first tracked
// root.
func (s *Server) container(r *http.Request) (string, *memdom.Container, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := r.URL.Query().Get("root")
	if id == "" {
		if len(s.order) == 0 {
			return "", nil, false
		}
		id = s.order[0]
	}
	c, ok := s.roots[id]
	return id, c, ok
}

type rootInfo struct {
	ID  string `json:"id"`
	Seq uint64 `json:"seq"`
}

func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := make([]rootInfo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, rootInfo{ID: id, Seq: s.roots[id].Snapshot().Seq})
	}
	s.mu.RUnlock()
	s.writeJSON(w, out)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.container(r)
	if !ok {
		http.Error(w, "unknown root", http.StatusNotFound)
		return
	}
	s.writeJSON(w, c.Snapshot())
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.container(r)
	if !ok {
		http.Error(w, "unknown root", http.StatusNotFound)
		return
	}
	renderer := render.NewRenderer(render.Config{
		Pretty:  r.URL.Query().Get("pretty") != "",
		NodeIDs: r.URL.Query().Get("ids") != "",
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderer.RenderToWriter(w, c.Snapshot().Root); err != nil {
		s.logger.Error("render failed", "error", err)
	}
}

func (s *Server) handleCommits(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.hub.History())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// Close disconnects stream clients.
func (s *Server) Close() {
	s.hub.Close()
}
