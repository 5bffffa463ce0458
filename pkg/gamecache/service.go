// Package gamecache is the caching facade in front of the BGG XML API2.
//
// A Service owns three in-memory tables (hot list, per-game details, search
// results), one rate limiter and one retry executor shared by every upstream
// call. Reads are served from a table while its entry is fresh; otherwise the
// service fetches through the limiter and the retry executor, maps the raw
// items, stores the result and returns it.
//
// Basic usage:
//
//	client, _ := bgg.New(bgg.DefaultConfig("my-app/1.0"))
//	svc, err := gamecache.New(client, gamecache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	hot, err := svc.GetHotGames(ctx)
//	results, err := svc.SearchGames(ctx, "catan")
//	catan, err := svc.GetGameDetails(ctx, 13)
//
// Concurrent misses for the same key share one upstream fetch. Upstream work
// is detached from the caller's cancellation: a caller whose context ends gets
// ctx.Err() right away while the fetch runs to completion and is cached.
package gamecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/bgg-cache/pkg/batch"
	"github.com/Sternrassler/bgg-cache/pkg/bgg"
	"github.com/Sternrassler/bgg-cache/pkg/cache"
	"github.com/Sternrassler/bgg-cache/pkg/games"
	"github.com/Sternrassler/bgg-cache/pkg/ratelimit"
	"github.com/Sternrassler/bgg-cache/pkg/retry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Upstream is the raw data source behind the cache. *bgg.Client implements it.
type Upstream interface {
	FetchHot(ctx context.Context) ([]int, error)
	FetchSearch(ctx context.Context, query string, exact bool) ([]int, error)
	FetchDetail(ctx context.Context, id int) (bgg.Item, error)
}

// Config holds the service configuration.
type Config struct {
	// TTL is the freshness window shared by all tables.
	TTL time.Duration

	// HotLimit caps the number of hot items resolved to details.
	HotLimit int

	// HotBatchSize bounds concurrent detail fetches for the hot list and search.
	HotBatchSize int

	// SearchLimit caps the number of candidates resolved per search pass.
	SearchLimit int

	// Retry configures the retry executor. A nil Classify uses bgg.Classify.
	Retry retry.Config

	// Limiter gates every upstream attempt. Nil uses an in-memory spacer with
	// ratelimit.DefaultDelay.
	Limiter ratelimit.Limiter

	// Now is the clock used to stamp and age entries. Nil uses time.Now.
	Now func() time.Time

	// Logger receives service logs.
	Logger zerolog.Logger
}

// DefaultConfig returns the default configuration: one hour TTL, ten hot
// items, batches of five, ten search candidates, three retries from 2s.
func DefaultConfig() Config {
	return Config{
		TTL:          time.Hour,
		HotLimit:     10,
		HotBatchSize: 5,
		SearchLimit:  10,
		Retry:        retry.DefaultConfig(classifyUpstream),
		Logger:       zerolog.Nop(),
	}
}

// Stats reports the number of entries per table.
type Stats struct {
	HotEntries    int    `json:"hot_entries"`
	DetailEntries int    `json:"detail_entries"`
	SearchEntries int    `json:"search_entries"`
	Generation    uint64 `json:"generation"`
}

// Service is the game cache facade. It is safe for concurrent use.
type Service struct {
	upstream Upstream
	config   Config
	logger   zerolog.Logger

	limiter ratelimit.Limiter
	retrier *retry.Executor
	mapper  *games.Mapper
	batcher *batch.Fetcher

	hot     *cache.Table[string, []games.GameRecord]
	details *cache.Table[int, games.GameRecord]
	search  *cache.Table[string, []games.GameRecord]

	flights    singleflight.Group
	generation atomic.Uint64

	// storeMu orders stores against ClearCaches.
	storeMu sync.Mutex
}

// New creates a service fetching from upstream.
func New(upstream Upstream, cfg Config) (*Service, error) {
	if upstream == nil {
		return nil, errors.New("upstream is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("ttl must be positive, got %v", cfg.TTL)
	}
	if cfg.HotLimit <= 0 || cfg.HotBatchSize <= 0 || cfg.SearchLimit <= 0 {
		return nil, errors.New("hot limit, hot batch size and search limit must be positive")
	}

	if cfg.Retry.Classify == nil {
		cfg.Retry.Classify = classifyUpstream
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	logger := cfg.Logger.With().Str("component", "gamecache").Logger()

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewSpacer(ratelimit.DefaultDelay, logger)
	}

	return &Service{
		upstream: upstream,
		config:   cfg,
		logger:   logger,
		limiter:  limiter,
		retrier:  retry.New(cfg.Retry, logger),
		mapper:   games.NewMapper(logger),
		batcher:  batch.NewFetcher(batch.Config{MaxConcurrency: cfg.HotBatchSize}, logger),
		hot:      cache.NewTable[string, []games.GameRecord](cache.TableHot, cfg.TTL, cfg.Now),
		details:  cache.NewTable[int, games.GameRecord](cache.TableDetail, cfg.TTL, cfg.Now),
		search:   cache.NewTable[string, []games.GameRecord](cache.TableSearch, cfg.TTL, cfg.Now),
	}, nil
}

// ClearCaches empties all three tables. Calls made afterwards never join a
// fetch that started before, and such fetches do not repopulate the tables.
func (s *Service) ClearCaches() {
	s.storeMu.Lock()
	s.generation.Add(1)
	s.hot.Clear()
	s.details.Clear()
	s.search.Clear()
	s.storeMu.Unlock()

	s.logger.Info().Msg("Caches cleared")
}

// Stats returns the current entry counts.
func (s *Service) Stats() Stats {
	return Stats{
		HotEntries:    s.hot.Len(),
		DetailEntries: s.details.Len(),
		SearchEntries: s.search.Len(),
		Generation:    s.generation.Load(),
	}
}

// call runs one upstream operation through the retry executor. Every attempt
// waits for its own rate-limit slot.
func (s *Service) call(ctx context.Context, operation, key string, fn func(ctx context.Context) error) error {
	return s.retrier.Run(ctx, operation, key, func(ctx context.Context) error {
		if err := s.limiter.Acquire(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
		return fn(ctx)
	})
}

// store runs set unless the caches were cleared since gen was read.
func (s *Service) store(gen uint64, set func()) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	if s.generation.Load() != gen {
		return
	}
	set()
}

// share runs fn once per table, key and generation no matter how many callers
// ask concurrently. fn runs detached from ctx; the caller stops waiting when
// ctx is done.
func share[T any](ctx context.Context, s *Service, table, key string, gen uint64, fn func(ctx context.Context) (T, error)) (T, error) {
	flightKey := fmt.Sprintf("%d/%s/%s", gen, table, key)
	detached := context.WithoutCancel(ctx)

	ch := s.flights.DoChan(flightKey, func() (any, error) {
		return fn(detached)
	})

	var zero T
	select {
	case <-ctx.Done():
		s.logger.Debug().
			Str("operation", table).
			Str("key", key).
			Msg("Caller gave up, fetch continues in background")
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			inflightShared.WithLabelValues(table).Inc()
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func classifyUpstream(err error) (string, bool) {
	class, transient := bgg.Classify(err)
	return string(class), transient
}
