package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for request spacing.
var (
	rateLimitWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bgg_rate_limit_wait_seconds",
		Help:    "Time spent waiting for an upstream request slot by limiter backend",
		Buckets: []float64{0, 0.5, 1, 2, 5, 10, 30},
	}, []string{"backend"})

	rateLimitAcquiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bgg_rate_limit_acquires_total",
		Help: "Total number of request slots handed out by limiter backend",
	}, []string{"backend"})
)

// Spacer is the in-process limiter. One Spacer is shared by all outbound
// calls of a cache instance, so it throttles the total request rate rather
// than the rate per resource.
type Spacer struct {
	mu     sync.Mutex
	state  State
	now    func() time.Time
	logger zerolog.Logger
}

// NewSpacer creates a spacer enforcing delay between acquires.
func NewSpacer(delay time.Duration, logger zerolog.Logger) *Spacer {
	if delay < 0 {
		delay = 0
	}
	return &Spacer{
		state:  State{Delay: delay},
		now:    time.Now,
		logger: logger,
	}
}

// Acquire reserves the next slot and sleeps until it starts. The read of the
// previous slot and the write of the new one happen under one lock, so a
// burst of concurrent callers is serialized to one slot per delay window in
// arrival order.
func (s *Spacer) Acquire(ctx context.Context) error {
	s.mu.Lock()
	slot, wait := reserve(s.state, s.now())
	s.state.LastSlot = slot
	s.mu.Unlock()

	rateLimitAcquiresTotal.WithLabelValues("memory").Inc()
	rateLimitWaitSeconds.WithLabelValues("memory").Observe(wait.Seconds())

	if wait > 0 {
		s.logger.Debug().
			Dur("wait", wait).
			Msg("Waiting for upstream request slot")
	}

	return sleep(ctx, wait)
}

// State returns a snapshot of the reservation clock.
func (s *Spacer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
