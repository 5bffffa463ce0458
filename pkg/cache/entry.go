package cache

import "time"

// Entry is a cached value together with the time it was stored.
// Entries are never mutated; a refetch replaces the entry under its key.
type Entry[T any] struct {
	// Value is the cached payload
	Value T `json:"value"`

	// CreatedAt is when the value was stored
	CreatedAt time.Time `json:"created_at"`
}

// Timestamp returns CreatedAt as epoch milliseconds.
func (e Entry[T]) Timestamp() int64 {
	return e.CreatedAt.UnixMilli()
}

// IsFresh reports whether the entry is younger than ttl at now.
func (e Entry[T]) IsFresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) < ttl
}

// Age returns how long ago the entry was stored.
func (e Entry[T]) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
