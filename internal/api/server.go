package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr    string
	Token   string
	Version string
	Logger  *slog.Logger
}

// Server is the Omega Mouse control API server.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
	logger     *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Deps) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	handlers := NewHandlers(deps, cfg.Version)
	authConfig := &AuthConfig{Token: cfg.Token}
	auth := BearerAuth(authConfig)

	mux := http.NewServeMux()

	mux.Handle("/status", applyMiddleware(http.HandlerFunc(handlers.StatusHandler), auth))
	mux.Handle("/actions", applyMiddleware(http.HandlerFunc(handlers.ListActionsHandler), auth))
	mux.Handle("/actions/", applyMiddleware(http.HandlerFunc(handlers.InvokeActionHandler), auth))
	mux.Handle("/events", applyMiddleware(http.HandlerFunc(handlers.ListEventsHandler), auth))
	mux.Handle("/settings/reload", applyMiddleware(http.HandlerFunc(handlers.ReloadSettingsHandler), auth))

	// Health check (no auth)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      RequestLogger(cfg.Logger)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handlers:   handlers,
		logger:     cfg.Logger,
	}
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting control API", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the root handler (for testing).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// applyMiddleware applies middleware to a handler.
func applyMiddleware(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}
