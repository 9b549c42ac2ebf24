// Package server exposes a dashboard session over HTTP. Requests may arrive
// concurrently; every state change is funneled through the dashboard's
// Dispatch.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"streamlens/dashboard"
	"streamlens/render"
	"streamlens/storage"
)

// maxBodyBytes limits request bodies; actions and viewports are tiny.
const maxBodyBytes = 1 << 20

// Server holds the HTTP handlers of one dashboard.
type Server struct {
	dash    *dashboard.Dashboard
	storage storage.StorageInterface
	files   *render.FileRenderer
	reload  func(ctx context.Context) error
	logger  *slog.Logger

	mu       sync.Mutex
	viewport render.Size
	resize   *render.Debouncer
}

// Option configures a Server.
type Option func(*Server)

// WithFileRenderer redraws chart files after a debounced viewport change.
func WithFileRenderer(files *render.FileRenderer) Option {
	return func(s *Server) { s.files = files }
}

// WithReload enables POST /api/reload.
func WithReload(fn func(ctx context.Context) error) Option {
	return func(s *Server) { s.reload = fn }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithResizeDelay overrides render.ResizeDelay.
func WithResizeDelay(d time.Duration) Option {
	return func(s *Server) { s.resize = render.NewDebouncer(d, s.applyViewport) }
}

// New creates a server for dash. store backs presets and statistics.
func New(dash *dashboard.Dashboard, store storage.StorageInterface, opts ...Option) *Server {
	s := &Server{
		dash:     dash,
		storage:  store,
		viewport: render.Size{Width: render.DefaultWidth, Height: render.DefaultHeight},
	}
	s.resize = render.NewDebouncer(render.ResizeDelay, s.applyViewport)
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.files != nil {
		s.viewport = s.files.Size()
	}
	return s
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/actions", s.handleAction)
		r.Get("/actions", s.handleActionTypes)
		r.Get("/views", s.handleViews)
		r.Get("/views/{chart}", s.handleView)
		r.Get("/charts/{chart}.png", s.handleChartPNG)
		r.Get("/options/{list}", s.handleOptions)
		r.Get("/viewport", s.handleGetViewport)
		r.Post("/viewport", s.handleViewport)
		r.Get("/stats", s.handleStats)
		r.Post("/reload", s.handleReload)

		r.Route("/presets", func(r chi.Router) {
			r.Get("/", s.handleListPresets)
			r.Get("/{name}", s.handleGetPreset)
			r.Put("/{name}", s.handleSavePreset)
			r.Post("/{name}/load", s.handleLoadPreset)
			r.Delete("/{name}", s.handleDeletePreset)
		})
	})
	return r
}

// Close cancels a pending viewport redraw.
func (s *Server) Close() {
	s.resize.Stop()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) currentViewport() render.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// applyViewport runs after the resize quiet period.
func (s *Server) applyViewport() {
	size := s.currentViewport()
	if s.files == nil {
		return
	}
	s.files.SetSize(size)
	if err := s.dash.Refresh(context.Background()); err != nil {
		s.logger.Error("redraw after resize failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
