// Package cache provides the in-memory, time-boxed tables that back the
// game cache.
//
// Each Table maps a key to an Entry stamped with its creation time. An entry
// is fresh while now - CreatedAt < TTL; expiry is checked lazily on read and
// nothing is ever evicted in the background. Stale entries stay readable
// through Stale so callers can fall back to them when the upstream fails.
//
// # Basic Usage
//
//	details := cache.NewTable[int, games.GameRecord](cache.TableDetail, time.Hour, time.Now)
//
//	if record, ok := details.Fresh(13); ok {
//		return record, nil
//	}
//
//	record := fetch(13)
//	details.Set(13, record)
//
// # Metrics
//
// Tables export Prometheus metrics labelled by table name:
//
//   - bgg_cache_hits_total{table} - fresh reads
//   - bgg_cache_misses_total{table} - absent or expired reads
//   - bgg_cache_stale_served_total{table} - expired entries served as fallback
//   - bgg_cache_entries{table} - current entry count
package cache
