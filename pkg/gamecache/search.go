package gamecache

import (
	"context"
	"slices"
	"strings"

	"github.com/Sternrassler/bgg-cache/pkg/batch"
	"github.com/Sternrassler/bgg-cache/pkg/bgg"
	"github.com/Sternrassler/bgg-cache/pkg/cache"
	"github.com/Sternrassler/bgg-cache/pkg/games"
	"github.com/Sternrassler/bgg-cache/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// searchPass is one upstream search attempt of the fallback chain.
type searchPass struct {
	name  string
	query string
	exact bool
}

// searchOutcome accumulates the passes of one search refresh.
type searchOutcome struct {
	results   []games.GameRecord
	attempted int
	failed    int
	lastErr   error
}

func (o *searchOutcome) fail(err error) {
	o.attempted++
	o.failed++
	o.lastErr = err
}

// allFailed reports whether nothing was found because every pass failed.
func (o *searchOutcome) allFailed() bool {
	return len(o.results) == 0 && o.attempted > 0 && o.failed == o.attempted
}

// SearchGames returns the games matching query. Blank queries return an empty
// slice without touching the cache. Known titles are pinned at index 0; the
// general results follow ordered by rank. When the general search finds
// nothing, exact, first-word and wildcard searches are tried in turn.
//
// An empty result is a normal outcome. ErrUpstreamUnavailable is returned only
// when every pass failed and no earlier result for the query is cached.
func (s *Service) SearchGames(ctx context.Context, query string) ([]games.GameRecord, error) {
	key := cache.NormalizeQuery(query)
	if key == "" {
		return []games.GameRecord{}, nil
	}

	ctx, span := tracing.StartSpan(ctx, "gamecache.SearchGames",
		tracing.WithAttributes(attribute.String("search.query", key)))
	defer span.End()

	if list, ok := s.search.Fresh(key); ok {
		s.logger.Debug().Str("operation", bgg.OperationSearch).Str("key", key).Msg("Cache hit")
		return games.CloneAll(list), nil
	}

	gen := s.generation.Load()
	list, err := share(ctx, s, cache.TableSearch, key, gen, func(ctx context.Context) ([]games.GameRecord, error) {
		return s.refreshSearch(ctx, gen, key)
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	tracing.AddSpanAttributes(span, attribute.Int("games.count", len(list)))
	return games.CloneAll(list), nil
}

func (s *Service) refreshSearch(ctx context.Context, gen uint64, key string) ([]games.GameRecord, error) {
	out := &searchOutcome{}

	// pinned stays 0 unless the special-case record made it into the results,
	// so a failed pin never filters the general candidates.
	pinned := 0
	if id, ok := pinnedID(key); ok {
		record, err := s.detail(ctx, id)
		if err != nil {
			out.fail(err)
			s.logger.Warn().
				Err(err).
				Str("operation", bgg.OperationSearch).
				Str("key", key).
				Int("pinned_id", id).
				Msg("Pinned game unavailable")
		} else {
			pinned = id
			out.attempted++
			out.results = append(out.results, record)
		}
	}

	for i, pass := range searchPasses(key) {
		if i > 0 && len(out.results) > 0 {
			break
		}
		s.runSearchPass(ctx, key, pass, pinned, out)
	}

	if out.allFailed() {
		if stale, ok := s.search.Stale(key); ok {
			s.logger.Warn().
				Err(out.lastErr).
				Str("operation", bgg.OperationSearch).
				Str("key", key).
				Msg("Serving stale search results, upstream degraded")
			return stale, nil
		}
		s.logger.Error().
			Err(out.lastErr).
			Str("operation", bgg.OperationSearch).
			Str("key", key).
			Int("passes", out.attempted).
			Msg("Search failed")
		return nil, unavailable(bgg.OperationSearch, key, out.lastErr)
	}

	results := out.results
	if results == nil {
		results = []games.GameRecord{}
	}
	s.store(gen, func() { s.search.Set(key, results) })

	s.logger.Info().
		Str("operation", bgg.OperationSearch).
		Str("key", key).
		Int("games", len(results)).
		Int("passes", out.attempted).
		Msg("Search completed")
	return results, nil
}

// searchPasses lists the passes for key in order. The general pass always
// runs; the rest only while nothing has been found.
func searchPasses(key string) []searchPass {
	passes := []searchPass{
		{name: "general", query: key},
		{name: "exact", query: key, exact: true},
	}
	if fields := strings.Fields(key); len(fields) > 1 {
		passes = append(passes, searchPass{name: "first_word", query: fields[0]})
	}
	if len([]rune(key)) <= 3 {
		passes = append(passes, searchPass{name: "wildcard", query: key + "*"})
	}
	return passes
}

// runSearchPass runs one upstream search, resolves the candidates to details
// and appends them to out ordered by rank. Candidates whose details cannot be
// fetched are skipped.
func (s *Service) runSearchPass(ctx context.Context, key string, pass searchPass, pinned int, out *searchOutcome) {
	var ids []int
	err := s.call(ctx, bgg.OperationSearch, pass.query, func(ctx context.Context) error {
		var err error
		ids, err = s.upstream.FetchSearch(ctx, pass.query, pass.exact)
		return err
	})
	if err != nil {
		out.fail(err)
		s.logger.Warn().
			Err(err).
			Str("operation", bgg.OperationSearch).
			Str("key", key).
			Str("pass", pass.name).
			Msg("Search pass failed")
		return
	}
	out.attempted++

	if len(ids) > s.config.SearchLimit {
		ids = ids[:s.config.SearchLimit]
	}
	ids = slices.DeleteFunc(ids, func(id int) bool { return id == pinned })

	found := make([]games.GameRecord, 0, len(ids))
	for _, r := range batch.FetchAll(ctx, s.batcher, bgg.OperationSearch, ids, s.detail) {
		if r.Err == nil {
			found = append(found, r.Value)
		}
	}
	games.SortByRank(found)

	s.logger.Debug().
		Str("operation", bgg.OperationSearch).
		Str("key", key).
		Str("pass", pass.name).
		Int("candidates", len(ids)).
		Int("games", len(found)).
		Msg("Search pass completed")

	out.results = append(out.results, found...)
}
