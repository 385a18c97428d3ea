package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psaab/blockedit/pkg/session"
)

// Config configures the API server.
type Config struct {
	Addr    string
	Auth    *AuthConfig // nil = no authentication
	Session *session.Session
	Logger  *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	sess       *session.Session
	logger     *slog.Logger
	handler    http.Handler
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	s := &Server{
		sess:   cfg.Session,
		logger: cfg.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Prometheus metrics with isolated registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(newCollector(s))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Document and selection
	mux.HandleFunc("GET /api/v1/status", s.statusHandler)
	mux.HandleFunc("GET /api/v1/document", s.documentHandler)
	mux.HandleFunc("GET /api/v1/selection", s.selectionHandler)
	mux.HandleFunc("GET /api/v1/choices", s.choicesHandler)
	mux.HandleFunc("POST /api/v1/select", s.selectHandler)
	mux.HandleFunc("POST /api/v1/navigate", s.navigateHandler)

	// Edits
	mux.HandleFunc("POST /api/v1/choose", s.chooseHandler)
	mux.HandleFunc("POST /api/v1/type", s.typeHandler)
	mux.HandleFunc("POST /api/v1/delete", s.deleteHandler)
	mux.HandleFunc("POST /api/v1/backspace", s.backspaceHandler)
	mux.HandleFunc("POST /api/v1/layout", s.layoutHandler)

	// Clipboard and drag-and-drop
	mux.HandleFunc("POST /api/v1/copy", s.copyHandler)
	mux.HandleFunc("GET /api/v1/clipboard", s.clipboardHandler)
	mux.HandleFunc("POST /api/v1/paste", s.pasteHandler)
	mux.HandleFunc("POST /api/v1/take", s.takeHandler)
	mux.HandleFunc("POST /api/v1/drop", s.dropHandler)
	mux.HandleFunc("POST /api/v1/drag/cancel", s.cancelDragHandler)
	mux.HandleFunc("GET /api/v1/targets", s.targetsHandler)

	// Toolbox
	mux.HandleFunc("GET /api/v1/palette", s.paletteHandler)
	mux.HandleFunc("POST /api/v1/palette", s.storeHandler)

	// History and persistence
	mux.HandleFunc("GET /api/v1/history", s.historyHandler)
	mux.HandleFunc("POST /api/v1/undo", s.undoHandler)
	mux.HandleFunc("POST /api/v1/redo", s.redoHandler)
	mux.HandleFunc("POST /api/v1/save", s.saveHandler)
	mux.HandleFunc("POST /api/v1/load", s.loadHandler)
	mux.HandleFunc("POST /api/v1/reset", s.resetHandler)

	// Events
	mux.HandleFunc("GET /api/v1/events", s.eventsHandler)
	mux.HandleFunc("GET /api/v1/events/stream", s.eventStreamHandler)

	// Generic shell command
	mux.HandleFunc("POST /api/v1/exec", s.execHandler)

	var handler http.Handler = mux
	if cfg.Auth != nil {
		handler = authMiddleware(*cfg.Auth, mux)
	}
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, including authentication.
func (s *Server) Handler() http.Handler { return s.handler }

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
