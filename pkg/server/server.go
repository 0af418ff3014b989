// Package server exposes layout, rendering, extraction and run history over
// HTTP.
//
// Routes:
//
//	GET  /healthz            build information
//	POST /v1/layout          token groups in, placements out
//	POST /v1/decks?format=   token groups in, rendered deck out
//	POST /v1/extract         multipart images in, token groups out
//	GET  /v1/runs            recent pipeline runs
//	GET  /v1/runs/{id}       one pipeline run
//
// Errors are JSON objects of the form {"code": "...", "message": "..."}.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/tokendeck/pkg/extract"
	"github.com/matzehuels/tokendeck/pkg/history"
	"github.com/matzehuels/tokendeck/pkg/layout"
)

// Defaults for [Config].
const (
	DefaultAddr           = ":8080"
	DefaultReadTimeout    = 30 * time.Second
	DefaultMaxUploadBytes = 32 << 20
	shutdownTimeout       = 10 * time.Second
)

// Config configures a [Server].
type Config struct {
	Addr        string
	ReadTimeout time.Duration

	// MaxUploadBytes bounds request bodies, uploads included.
	MaxUploadBytes int64

	// MaxImageDimension downscales uploaded images, when positive.
	MaxImageDimension int

	// Page and Grid are the layout defaults; requests may override them.
	Page layout.PageGeometry
	Grid layout.GridConfig
}

// Server serves the HTTP API.
type Server struct {
	cfg       Config
	extractor extract.Extractor
	history   history.Store
	logger    *log.Logger
	now       func() time.Time
}

// Option configures a [Server].
type Option func(*Server)

// WithExtractor enables POST /v1/extract.
func WithExtractor(ex extract.Extractor) Option { return func(s *Server) { s.extractor = ex } }

// WithHistory sets the store behind /v1/runs.
func WithHistory(store history.Store) Option { return func(s *Server) { s.history = store } }

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// New creates a server. Zero config fields take their defaults.
func New(cfg Config, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Page == (layout.PageGeometry{}) {
		cfg.Page = layout.DefaultPage()
	}
	if cfg.Grid == (layout.GridConfig{}) {
		cfg.Grid = layout.DefaultGrid()
	}
	s := &Server{
		cfg:     cfg,
		history: history.Nop{},
		logger:  log.New(io.Discard),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = history.Nop{}
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/decks", s.handleDeck)
		r.Post("/extract", s.handleExtract)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNotFound(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errMethod(r.Method, r.URL.Path))
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
