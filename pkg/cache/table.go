package cache

import (
	"sync"
	"time"
)

// Table is a concurrency-safe map of timestamped entries with a uniform TTL.
type Table[K comparable, V any] struct {
	name string
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[K]Entry[V]
}

// NewTable creates an empty table. A nil now defaults to time.Now.
func NewTable[K comparable, V any](name string, ttl time.Duration, now func() time.Time) *Table[K, V] {
	if now == nil {
		now = time.Now
	}
	return &Table[K, V]{
		name:    name,
		ttl:     ttl,
		now:     now,
		entries: make(map[K]Entry[V]),
	}
}

// Name returns the table name.
func (t *Table[K, V]) Name() string {
	return t.name
}

// Get returns the entry stored under key regardless of age.
func (t *Table[K, V]) Get(key K) (Entry[V], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.entries[key]
	return entry, ok
}

// Fresh returns the value under key if its entry has not expired.
func (t *Table[K, V]) Fresh(key K) (V, bool) {
	entry, ok := t.Get(key)
	if !ok || !entry.IsFresh(t.now(), t.ttl) {
		CacheMisses.WithLabelValues(t.name).Inc()
		var zero V
		return zero, false
	}
	CacheHits.WithLabelValues(t.name).Inc()
	return entry.Value, true
}

// Stale returns the value under key of any age, for use as a fallback after
// the upstream failed.
func (t *Table[K, V]) Stale(key K) (V, bool) {
	entry, ok := t.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	StaleServed.WithLabelValues(t.name).Inc()
	return entry.Value, true
}

// Set stores value under key, stamped with the current time.
func (t *Table[K, V]) Set(key K, value V) {
	t.mu.Lock()
	t.entries[key] = Entry[V]{Value: value, CreatedAt: t.now()}
	size := len(t.entries)
	t.mu.Unlock()

	CacheEntries.WithLabelValues(t.name).Set(float64(size))
}

// Clear removes every entry.
func (t *Table[K, V]) Clear() {
	t.mu.Lock()
	t.entries = make(map[K]Entry[V])
	t.mu.Unlock()

	CacheEntries.WithLabelValues(t.name).Set(0)
}

// Len returns the number of entries, fresh or not.
func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
