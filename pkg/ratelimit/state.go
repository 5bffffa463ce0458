// Package ratelimit enforces a minimum spacing between outbound upstream
// requests. Every call into the upstream source acquires a slot first; slots
// are handed out at least Delay apart, measured from the start of the
// previous acquire.
package ratelimit

import (
	"context"
	"time"
)

// DefaultDelay is the minimum spacing between two upstream requests.
const DefaultDelay = 2000 * time.Millisecond

// Limiter gates outbound requests.
type Limiter interface {
	// Acquire blocks until the caller may issue its request.
	Acquire(ctx context.Context) error
}

// State is a snapshot of a limiter's reservation clock.
type State struct {
	// LastSlot is the start time handed to the most recent acquire.
	LastSlot time.Time

	// Delay is the enforced spacing.
	Delay time.Duration
}

// NextSlot returns the earliest slot available at now.
func (s State) NextSlot(now time.Time) time.Time {
	if s.LastSlot.IsZero() {
		return now
	}
	next := s.LastSlot.Add(s.Delay)
	if next.Before(now) {
		return now
	}
	return next
}

// reserve computes the slot for a caller arriving at now and the time it has
// to wait for it. The caller must store the returned slot as the new LastSlot
// in the same critical section.
func reserve(s State, now time.Time) (slot time.Time, wait time.Duration) {
	slot = s.NextSlot(now)
	return slot, slot.Sub(now)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
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
