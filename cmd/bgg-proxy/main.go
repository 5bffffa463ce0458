package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/bgg-cache/pkg/bgg"
	"github.com/Sternrassler/bgg-cache/pkg/config"
	"github.com/Sternrassler/bgg-cache/pkg/gamecache"
	"github.com/Sternrassler/bgg-cache/pkg/logging"
	"github.com/Sternrassler/bgg-cache/pkg/ratelimit"
	"github.com/Sternrassler/bgg-cache/pkg/tracing"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("bgg-proxy failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Setup(cfg.Logging())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing())
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	client, err := bgg.New(cfg.Client(&logger))
	if err != nil {
		return fmt.Errorf("create bgg client: %w", err)
	}

	cacheCfg := cfg.Cache(logger)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis, sharing rate limit")
		cacheCfg.Limiter = ratelimit.NewRedisSpacer(redisClient, cfg.RateLimitDelay, logger)
	} else {
		cacheCfg.Limiter = ratelimit.NewSpacer(cfg.RateLimitDelay, logger)
	}

	svc, err := gamecache.New(client, cacheCfg)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newServer(svc, redisClient, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("user_agent", cfg.UserAgent).
			Dur("rate_limit_delay", cfg.RateLimitDelay).
			Msg("Starting BGG proxy server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
