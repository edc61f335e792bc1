// Package api exposes the scoring service over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nile-security/nile/internal/nile/leaderboard"
	"github.com/nile-security/nile/internal/nile/notify"
	"github.com/nile-security/nile/internal/nile/score"
	"github.com/nile-security/nile/internal/nile/store"
)

// Storage is the subset of the store the API needs.
type Storage interface {
	UpsertContract(ctx context.Context, address, name string) error
	InsertScan(ctx context.Context, scanID, address string) error
	InsertScore(ctx context.Context, rec store.ScoreRecord) error
	LatestScore(ctx context.Context, address string) (store.ScoreRecord, error)
	History(ctx context.Context, address string, limit int) ([]store.ScoreRecord, error)
}

// Publisher announces scoring events.
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
}

// Config holds API server configuration.
type Config struct {
	Addr    string
	Weights score.Weights
}

// Server is the scoring HTTP server.
type Server struct {
	cfg      Config
	storage  Storage
	notifier Publisher
	index    *leaderboard.Index
	logger   *slog.Logger
	router   chi.Router

	scansProcessed atomic.Int64
	lastScanAt     atomic.Value // time.Time
}

// NewServer creates a configured scoring server.
func NewServer(cfg Config, storage Storage, notifier Publisher, index *leaderboard.Index, logger *slog.Logger) *Server {
	if index == nil {
		index = leaderboard.NewIndex()
	}

	s := &Server{
		cfg:      cfg,
		storage:  storage,
		notifier: notifier,
		index:    index,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scans", s.handleSubmitScan)
		r.Get("/contracts/{address}/score", s.handleGetScore)
		r.Get("/contracts/{address}/history", s.handleGetHistory)
		r.Mount("/leaderboard", index.Routes())
	})
	s.router = r

	return s
}

// Router exposes the HTTP handler (for tests and embedding).
func (s *Server) Router() http.Handler { return s.router }

// Start begins serving. Blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("scoring service starting", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down scoring service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}
