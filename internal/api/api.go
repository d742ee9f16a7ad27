// Package api provides HTTP handlers and the main API server logic for
// ConsultIQ.
//
// It exposes RESTful endpoints for lead-qualification sessions: creating a
// session, submitting conversation turns, and reading state and transcripts.
// The API integrates the engine, store, genai, and notify modules.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/consultiq/consultiq/internal/engine"
	"github.com/consultiq/consultiq/internal/models"
	"github.com/consultiq/consultiq/internal/store"
)

// Server timeouts.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// phraser turns an engine decision into user-facing text. The genai client
// implements it; a nil phraser falls back to templates.
type phraser interface {
	PhraseAction(ctx context.Context, action models.Action, state models.ConversationState) (string, error)
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr         string
	TurnInterval time.Duration
	TurnBurst    int
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithTurnRate overrides the per-session turn rate limit.
func WithTurnRate(interval time.Duration, burst int) Option {
	return func(o *Opts) {
		o.TurnInterval = interval
		o.TurnBurst = burst
	}
}

// Server wires the qualification engine to HTTP transport.
type Server struct {
	st      store.Store
	engine  *engine.Engine
	ga      phraser
	limiter *sessionLimiter

	// locks serializes turns per session; the engine computes each turn
	// from a single state snapshot and has no compare-and-swap semantics.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	addr string
	srv  *http.Server
}

// NewServer creates an API server. ga may be nil; phrasing then uses the
// built-in templates.
func NewServer(st store.Store, eng *engine.Engine, ga phraser, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	return &Server{
		st:      st,
		engine:  eng,
		ga:      ga,
		limiter: newSessionLimiter(cfg.TurnInterval, cfg.TurnBurst),
		locks:   make(map[string]*sync.Mutex),
		addr:    cfg.Addr,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("POST /sessions", s.createSessionHandler)
	mux.HandleFunc("GET /sessions", s.listSessionsHandler)
	mux.HandleFunc("GET /sessions/{id}", s.getSessionHandler)
	mux.HandleFunc("DELETE /sessions/{id}", s.deleteSessionHandler)
	mux.HandleFunc("POST /sessions/{id}/turns", s.turnHandler)
	mux.HandleFunc("GET /sessions/{id}/messages", s.messagesHandler)
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
		slog.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("API server shutdown failed: %w", err)
		}
		return nil
	}
}

// sessionLock returns the mutex serializing turns for one session.
func (s *Server) sessionLock(sessionID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[sessionID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[sessionID] = mu
	}
	return mu
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "healthy"}))
}
