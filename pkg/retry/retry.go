// Package retry re-runs upstream operations that fail with transient errors,
// waiting an exponentially growing delay between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bgg_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bgg_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bgg_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// ErrRetryExhausted is returned when all retry attempts are exhausted.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// Classifier reports the class of err and whether it is worth retrying.
type Classifier func(err error) (class string, retry bool)

// Config holds the configuration for retry logic.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry. Retry n waits BaseDelay * 2^n.
	BaseDelay time.Duration

	// Classify decides which errors are retried. Nil retries nothing.
	Classify Classifier
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig(classify Classifier) Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  2000 * time.Millisecond,
		Classify:   classify,
	}
}

// Executor runs operations with retry and backoff.
type Executor struct {
	config Config
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates an executor.
func New(cfg Config, logger zerolog.Logger) *Executor {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Executor{
		config: cfg,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Backoff returns the delay before retry attempt (0-based).
func (e *Executor) Backoff(attempt int) time.Duration {
	return e.config.BaseDelay * time.Duration(1<<attempt)
}

// Run invokes fn, retrying transient failures. Each retry re-invokes all of
// fn. operation and key are only used for logging. Non-transient errors are
// returned unchanged; when the retry budget runs out the last error is
// returned wrapped in ErrRetryExhausted.
func (e *Executor) Run(ctx context.Context, operation, key string, fn func(ctx context.Context) error) error {
	var lastErr error
	var lastClass string

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				e.logger.Info().
					Str("operation", operation).
					Str("key", key).
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		class, retry := e.classify(err)
		lastClass = class

		if !retry {
			return err
		}

		if attempt >= e.config.MaxRetries {
			break
		}

		backoff := e.Backoff(attempt)
		retriesTotal.WithLabelValues(class).Inc()
		retryBackoffSeconds.WithLabelValues(class).Observe(backoff.Seconds())

		e.logger.Warn().
			Err(err).
			Str("operation", operation).
			Str("key", key).
			Str("error_class", class).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		if err := e.sleep(ctx, backoff); err != nil {
			return fmt.Errorf("retry backoff: %w", err)
		}
	}

	retryExhaustedTotal.WithLabelValues(lastClass).Inc()
	e.logger.Error().
		Err(lastErr).
		Str("operation", operation).
		Str("key", key).
		Str("error_class", lastClass).
		Int("attempts", e.config.MaxRetries+1).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, e.config.MaxRetries+1, lastErr)
}

func (e *Executor) classify(err error) (string, bool) {
	if e.config.Classify == nil {
		return "", false
	}
	return e.config.Classify(err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
