package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/bgg-cache/pkg/gamecache"
	"github.com/Sternrassler/bgg-cache/pkg/games"
	"github.com/Sternrassler/bgg-cache/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// requestTimeout bounds how long a client waits; upstream fetches keep running
// and are cached after the client gives up.
const requestTimeout = 30 * time.Second

// gameCache is the part of *gamecache.Service the server uses.
type gameCache interface {
	GetHotGames(ctx context.Context) ([]games.GameRecord, error)
	SearchGames(ctx context.Context, query string) ([]games.GameRecord, error)
	GetGameDetails(ctx context.Context, id int) (games.GameRecord, error)
	ClearCaches()
	Stats() gamecache.Stats
}

type server struct {
	cache  gameCache
	redis  *redis.Client
	logger zerolog.Logger
}

// newServer creates the HTTP front. redisClient may be nil.
func newServer(cache gameCache, redisClient *redis.Client, logger zerolog.Logger) *server {
	return &server{
		cache:  cache,
		redis:  redisClient,
		logger: logger.With().Str("component", "bgg-proxy").Logger(),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", s.readyHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /games/hot", s.hotHandler)
	mux.HandleFunc("GET /games/search", s.searchHandler)
	mux.HandleFunc("GET /games/{id}", s.detailHandler)
	mux.HandleFunc("POST /cache/clear", s.clearHandler)
	mux.HandleFunc("GET /cache/stats", s.statsHandler)
	return otelhttp.NewHandler(mux, "bgg-proxy")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Redis not reachable")
			http.Error(w, "Redis not reachable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (s *server) hotHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := s.cache.GetHotGames(ctx)
	if err != nil {
		s.writeError(w, "hot", err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *server) searchHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := s.cache.SearchGames(ctx, r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, "search", err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *server) detailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.writeError(w, "thing", fmt.Errorf("%w: game id %q is not a number", gamecache.ErrInvalidArgument, r.PathValue("id")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	record, err := s.cache.GetGameDetails(ctx, id)
	if err != nil {
		s.writeError(w, "thing", err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *server) clearHandler(w http.ResponseWriter, r *http.Request) {
	s.cache.ClearCaches()
	s.writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *server) statsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cache.Stats())
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps cache errors to HTTP statuses.
func (s *server) writeError(w http.ResponseWriter, operation string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gamecache.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, gamecache.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}

	s.logger.Warn().
		Err(err).
		Str("operation", operation).
		Int("status", status).
		Msg("Request failed")
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}
