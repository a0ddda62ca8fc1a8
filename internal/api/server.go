package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"podpull/internal/config"
	"podpull/internal/logging"
	"podpull/internal/metrics"
	"podpull/internal/registry"
)

// Server exposes registry state over HTTP.
type Server struct {
	store    *registry.Store
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	bind     string
}

// NewServer builds the status server. The gatherer may be nil, which
// disables the /metrics endpoint.
func NewServer(cfg *config.Config, store *registry.Store, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		store:    store,
		gatherer: gatherer,
		logger:   logging.WithComponent(logger, "api"),
		bind:     cfg.Paths.APIBind,
	}
}

// Router assembles the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/podcasts", s.handlePodcasts)
		r.Get("/podcasts/{id}/episodes", s.handlePodcastEpisodes)
		r.Get("/episodes", s.handleEpisodes)
		r.Get("/episodes/{id}", s.handleEpisode)
		r.Post("/episodes/{id}/retry", s.handleRetry)
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	}

	return r
}

// Run serves until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.bind,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", logging.String("bind", s.bind))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorJSON{Error: message})
}
