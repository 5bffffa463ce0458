package batch

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of keys fetched at once
	MaxConcurrency int
	// Timeout per key fetch, zero for none
	Timeout time.Duration
}

// DefaultConfig returns the default configuration: five concurrent fetches,
// no per-key timeout.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
	}
}

// Result is the outcome of fetching one key.
type Result[K any, V any] struct {
	Key   K
	Value V
	Err   error
}

// Fetcher runs bounded fan-outs.
type Fetcher struct {
	config Config
	logger zerolog.Logger
}

// NewFetcher creates a new batch fetcher
func NewFetcher(config Config, logger zerolog.Logger) *Fetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	return &Fetcher{
		config: config,
		logger: logger,
	}
}

// FetchAll calls fetch for every key with at most MaxConcurrency calls in
// flight. results[i] always belongs to keys[i]. Keys not yet started when ctx
// is done are reported with ctx.Err().
func FetchAll[K any, V any](ctx context.Context, f *Fetcher, label string, keys []K, fetch func(ctx context.Context, key K) (V, error)) []Result[K, V] {
	start := time.Now()
	results := make([]Result[K, V], len(keys))

	var g errgroup.Group
	g.SetLimit(f.config.MaxConcurrency)

	for i, key := range keys {
		results[i].Key = key
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			itemCtx := ctx
			if f.config.Timeout > 0 {
				var cancel context.CancelFunc
				itemCtx, cancel = context.WithTimeout(ctx, f.config.Timeout)
				defer cancel()
			}

			results[i].Value, results[i].Err = fetch(itemCtx, key)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			f.logger.Warn().
				Err(r.Err).
				Str("operation", label).
				Interface("key", r.Key).
				Msg("Batch item fetch failed")
		}
	}

	f.logger.Debug().
		Str("operation", label).
		Int("items", len(keys)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return results
}
