package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisKeyLastSlot stores the start of the most recently reserved slot in
// epoch milliseconds.
const RedisKeyLastSlot = "bgg:rate_limit:last_slot"

// reserveScript performs the reservation atomically:
//
//	KEYS[1] = last slot key
//	ARGV[1] = now (ms), ARGV[2] = delay (ms), ARGV[3] = key ttl (ms)
//
// It returns the number of milliseconds the caller has to wait.
var reserveScript = redis.NewScript(`
local last = tonumber(redis.call('GET', KEYS[1]) or '0')
local now = tonumber(ARGV[1])
local delay = tonumber(ARGV[2])
local slot = now
if last > 0 and last + delay > now then
	slot = last + delay
end
redis.call('SET', KEYS[1], slot, 'PX', ARGV[3])
return slot - now
`)

// RedisSpacer shares one reservation clock between processes through Redis,
// so several instances behind the same IP stay within one request budget.
// Only the limiter state is shared; cache tables stay in-process.
type RedisSpacer struct {
	redis  *redis.Client
	delay  time.Duration
	key    string
	now    func() time.Time
	logger zerolog.Logger
}

// NewRedisSpacer creates a Redis-backed spacer enforcing delay between acquires.
func NewRedisSpacer(redisClient *redis.Client, delay time.Duration, logger zerolog.Logger) *RedisSpacer {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisSpacer{
		redis:  redisClient,
		delay:  delay,
		key:    RedisKeyLastSlot,
		now:    time.Now,
		logger: logger,
	}
}

// Acquire reserves the next shared slot and sleeps until it starts.
func (s *RedisSpacer) Acquire(ctx context.Context) error {
	now := s.now().UnixMilli()
	ttl := s.delay.Milliseconds() * 10
	if ttl < 1000 {
		ttl = 1000
	}

	waitMs, err := reserveScript.Run(ctx, s.redis, []string{s.key}, now, s.delay.Milliseconds(), ttl).Int64()
	if err != nil {
		s.logger.Error().Err(err).Msg("Rate limit reservation failed")
		return fmt.Errorf("reserve rate limit slot: %w", err)
	}

	wait := time.Duration(waitMs) * time.Millisecond
	rateLimitAcquiresTotal.WithLabelValues("redis").Inc()
	rateLimitWaitSeconds.WithLabelValues("redis").Observe(wait.Seconds())

	if wait > 0 {
		s.logger.Debug().
			Dur("wait", wait).
			Msg("Waiting for shared upstream request slot")
	}

	return sleep(ctx, wait)
}

// GetState reads the shared reservation clock.
// Returns a zero LastSlot when no request has been made yet.
func (s *RedisSpacer) GetState(ctx context.Context) (State, error) {
	last, err := s.redis.Get(ctx, s.key).Int64()
	if err != nil && err != redis.Nil {
		return State{}, fmt.Errorf("get last slot: %w", err)
	}

	state := State{Delay: s.delay}
	if err == nil && last > 0 {
		state.LastSlot = time.UnixMilli(last)
	}
	return state, nil
}
