package gamecache

import (
	"context"

	"github.com/Sternrassler/bgg-cache/pkg/batch"
	"github.com/Sternrassler/bgg-cache/pkg/bgg"
	"github.com/Sternrassler/bgg-cache/pkg/cache"
	"github.com/Sternrassler/bgg-cache/pkg/games"
	"github.com/Sternrassler/bgg-cache/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// GetHotGames returns the trending games in upstream order, at most HotLimit
// of them. Items whose details cannot be fetched are replaced by a fallback
// record. When the hot list itself cannot be fetched, the last stored list is
// served whatever its age.
func (s *Service) GetHotGames(ctx context.Context) ([]games.GameRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "gamecache.GetHotGames")
	defer span.End()

	if list, ok := s.hot.Fresh(cache.HotKey); ok {
		s.logger.Debug().Str("operation", bgg.OperationHot).Msg("Cache hit")
		return games.CloneAll(list), nil
	}

	gen := s.generation.Load()
	list, err := share(ctx, s, cache.TableHot, cache.HotKey, gen, func(ctx context.Context) ([]games.GameRecord, error) {
		return s.refreshHot(ctx, gen)
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	tracing.AddSpanAttributes(span, attribute.Int("games.count", len(list)))
	return games.CloneAll(list), nil
}

func (s *Service) refreshHot(ctx context.Context, gen uint64) ([]games.GameRecord, error) {
	var ids []int
	err := s.call(ctx, bgg.OperationHot, cache.HotKey, func(ctx context.Context) error {
		var err error
		ids, err = s.upstream.FetchHot(ctx)
		return err
	})
	if err != nil {
		if stale, ok := s.hot.Stale(cache.HotKey); ok {
			s.logger.Warn().
				Err(err).
				Str("operation", bgg.OperationHot).
				Str("key", cache.HotKey).
				Msg("Serving stale hot list, upstream degraded")
			return stale, nil
		}
		s.logger.Error().
			Err(err).
			Str("operation", bgg.OperationHot).
			Str("key", cache.HotKey).
			Msg("Hot list fetch failed")
		return nil, unavailable(bgg.OperationHot, cache.HotKey, err)
	}

	if len(ids) > s.config.HotLimit {
		ids = ids[:s.config.HotLimit]
	}

	results := batch.FetchAll(ctx, s.batcher, bgg.OperationHot, ids, s.detail)

	list := make([]games.GameRecord, 0, len(results))
	degraded := 0
	for _, r := range results {
		if r.Err != nil {
			degraded++
			list = append(list, games.Fallback(r.Key))
			continue
		}
		list = append(list, r.Value)
	}

	s.store(gen, func() { s.hot.Set(cache.HotKey, list) })

	s.logger.Info().
		Str("operation", bgg.OperationHot).
		Int("games", len(list)).
		Int("fallbacks", degraded).
		Msg("Hot list fetched")
	return list, nil
}
