package gamecache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Sternrassler/bgg-cache/pkg/bgg"
	"github.com/Sternrassler/bgg-cache/pkg/cache"
	"github.com/Sternrassler/bgg-cache/pkg/games"
	"github.com/Sternrassler/bgg-cache/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// GetGameDetails returns the record for id, fetching it when the cached entry
// is missing or expired. There is no stale fallback: a failed fetch returns
// ErrUpstreamUnavailable even when an expired entry exists.
func (s *Service) GetGameDetails(ctx context.Context, id int) (games.GameRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "gamecache.GetGameDetails",
		tracing.WithAttributes(attribute.Int("game.id", id)))
	defer span.End()

	if id <= 0 {
		err := fmt.Errorf("%w: game id must be positive, got %d", ErrInvalidArgument, id)
		tracing.RecordError(span, err)
		return games.GameRecord{}, err
	}

	record, err := s.detail(ctx, id)
	if err != nil {
		tracing.RecordError(span, err)
		return games.GameRecord{}, err
	}
	return record.Clone(), nil
}

// detail is the cache-through detail lookup shared by all three operations.
func (s *Service) detail(ctx context.Context, id int) (games.GameRecord, error) {
	if record, ok := s.details.Fresh(id); ok {
		s.logger.Debug().Str("operation", bgg.OperationThing).Int("key", id).Msg("Cache hit")
		return record, nil
	}

	gen := s.generation.Load()
	key := strconv.Itoa(id)
	return share(ctx, s, cache.TableDetail, key, gen, func(ctx context.Context) (games.GameRecord, error) {
		var raw bgg.Item
		err := s.call(ctx, bgg.OperationThing, key, func(ctx context.Context) error {
			var err error
			raw, err = s.upstream.FetchDetail(ctx, id)
			return err
		})
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("operation", bgg.OperationThing).
				Int("key", id).
				Msg("Detail fetch failed")
			return games.GameRecord{}, unavailable(bgg.OperationThing, key, err)
		}

		record := s.mapper.Map(raw, id)
		s.store(gen, func() { s.details.Set(id, record) })

		s.logger.Info().
			Str("operation", bgg.OperationThing).
			Int("key", id).
			Str("name", record.Name).
			Msg("Detail fetched")
		return record, nil
	})
}
