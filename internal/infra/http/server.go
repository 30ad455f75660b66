package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"schedule-ai-ingestion/internal/config"
	red "schedule-ai-ingestion/internal/infra/redis"
)

// Server exposes the worker's operational endpoints: liveness, readiness and
// Prometheus metrics. The product API is a separate service and not served
// here.
type Server struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	cache  red.RedisClient
	log    *zerolog.Logger
	server *http.Server
}

// NewServer wires the readiness dependencies. cache may be nil when the run
// guard is disabled; readiness then checks Postgres only.
func NewServer(cfg *config.Config, pool *pgxpool.Pool, cache red.RedisClient, logger *zerolog.Logger) *Server {
	return &Server{
		cfg:   cfg,
		pool:  pool,
		cache: cache,
		log:   logger,
	}
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Admin.Port),
		Handler: s.Handler(),
	}

	s.log.Info().Str("addr", s.server.Addr).Msg("ops HTTP server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler builds the route tree. Exposed separately so tests can drive it
// without a listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthCheck)
	r.Get("/readyz", s.handleReadyCheck)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (s *Server) handleReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.pool == nil {
		http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := s.pool.Ping(ctx); err != nil {
		s.log.Error().Err(err).Msg("readiness: postgres unreachable")
		http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
		return
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			s.log.Error().Err(err).Msg("readiness: redis unreachable")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "ready")
}
