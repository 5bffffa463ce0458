package gamecache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/bgg-cache/internal/testutil"
	"github.com/Sternrassler/bgg-cache/pkg/bgg"
	"github.com/Sternrassler/bgg-cache/pkg/games"
	"github.com/Sternrassler/bgg-cache/pkg/ratelimit"
	"github.com/Sternrassler/bgg-cache/pkg/retry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source for freshness tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingLimiter records acquires without waiting.
type countingLimiter struct {
	acquires atomic.Int32
}

func (l *countingLimiter) Acquire(ctx context.Context) error {
	l.acquires.Add(1)
	return ctx.Err()
}

type testEnv struct {
	svc     *Service
	mock    *testutil.MockBGG
	clock   *fakeClock
	limiter *countingLimiter
}

// newTestEnv wires a service to a fresh mock upstream with millisecond
// backoff, no rate-limit waits and a fake clock.
func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()

	mock := testutil.NewMockBGG()
	t.Cleanup(mock.Close)

	logger := zerolog.Nop()
	clientCfg := bgg.DefaultConfig("bgg-cache-test/1.0")
	clientCfg.BaseURL = mock.URL()
	clientCfg.Logger = &logger
	client, err := bgg.New(clientCfg)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := &countingLimiter{}

	cfg := DefaultConfig()
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Limiter = limiter
	cfg.Now = clock.Now
	for _, opt := range opts {
		opt(&cfg)
	}

	svc, err := New(client, cfg)
	require.NoError(t, err)

	return &testEnv{svc: svc, mock: mock, clock: clock, limiter: limiter}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero ttl", func(c *Config) { c.TTL = 0 }},
		{"zero hot limit", func(c *Config) { c.HotLimit = 0 }},
		{"zero batch size", func(c *Config) { c.HotBatchSize = 0 }},
		{"negative search limit", func(c *Config) { c.SearchLimit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			_, err := New(stubUpstream{}, cfg)
			assert.Error(t, err)
		})
	}

	_, err := New(nil, DefaultConfig())
	assert.EqualError(t, err, "upstream is required")
}

func TestNew_DefaultLimiter(t *testing.T) {
	svc, err := New(stubUpstream{}, DefaultConfig())
	require.NoError(t, err)

	spacer, ok := svc.limiter.(*ratelimit.Spacer)
	require.True(t, ok, "default limiter should be an in-memory spacer")
	assert.Equal(t, ratelimit.DefaultDelay, spacer.State().Delay)
}

func TestClearCaches_ThenRefetch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mock.SetResponse("/hot", testutil.NewXMLResponse(testutil.HotXML(13)))
	env.mock.SetThing(13, testutil.NewXMLResponse(testutil.CatanXML))
	env.mock.SetSearch("azul", false, testutil.NewXMLResponse(testutil.SearchXML(230802)))
	env.mock.SetThing(230802, testutil.NewXMLResponse(testutil.ThingXML(230802, "Azul", 60)))

	_, err := env.svc.GetHotGames(ctx)
	require.NoError(t, err)
	_, err = env.svc.SearchGames(ctx, "azul")
	require.NoError(t, err)
	_, err = env.svc.GetGameDetails(ctx, 13)
	require.NoError(t, err)

	stats := env.svc.Stats()
	assert.Equal(t, 1, stats.HotEntries)
	assert.Equal(t, 2, stats.DetailEntries)
	assert.Equal(t, 1, stats.SearchEntries)

	env.svc.ClearCaches()
	env.svc.ClearCaches()

	stats = env.svc.Stats()
	assert.Zero(t, stats.HotEntries+stats.DetailEntries+stats.SearchEntries)
	assert.Equal(t, uint64(2), stats.Generation)

	env.mock.Reset()

	_, err = env.svc.GetHotGames(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, env.mock.GetRequestCountFor("/hot"))
	assert.Equal(t, 1, env.mock.GetRequestCountFor("/thing?id=13"))

	_, err = env.svc.SearchGames(ctx, "azul")
	require.NoError(t, err)
	assert.Equal(t, 1, env.mock.GetRequestCountFor("/search?query=azul"))

	// Warmed by the hot list refresh above.
	_, err = env.svc.GetGameDetails(ctx, 13)
	require.NoError(t, err)
	assert.Equal(t, 1, env.mock.GetRequestCountFor("/thing?id=13"))
}

func TestClearCaches_InFlightFetchDoesNotRepopulate(t *testing.T) {
	env := newTestEnv(t)

	resp := testutil.NewXMLResponse(testutil.CatanXML)
	resp.Delay = 100 * time.Millisecond
	env.mock.SetThing(13, resp)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = env.svc.GetGameDetails(context.Background(), 13)
	}()

	require.Eventually(t, func() bool {
		return env.mock.GetRequestCountFor("/thing?id=13") == 1
	}, time.Second, 5*time.Millisecond)

	env.svc.ClearCaches()
	<-done

	assert.Zero(t, env.svc.Stats().DetailEntries)
}

func TestService_EveryAttemptIsRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.mock.SetThing(404, testutil.NewServerErrorResponse())

	_, err := env.svc.GetGameDetails(context.Background(), 404)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.ErrorIs(t, err, retry.ErrRetryExhausted)

	assert.Equal(t, int32(4), env.limiter.acquires.Load())
	assert.Equal(t, 4, env.mock.GetRequestCountFor("/thing?id=404"))
}

// stubUpstream is an Upstream that never answers with data.
type stubUpstream struct{}

func (stubUpstream) FetchHot(context.Context) ([]int, error) { return nil, nil }

func (stubUpstream) FetchSearch(context.Context, string, bool) ([]int, error) { return nil, nil }

func (stubUpstream) FetchDetail(_ context.Context, id int) (bgg.Item, error) {
	return bgg.Item{}, &bgg.UpstreamError{ErrorClass: bgg.ErrorClassClient, Err: bgg.ErrNotFound}
}

func TestStore_ClearDuringWriteWins(t *testing.T) {
	env := newTestEnv(t)
	gen := env.svc.generation.Load()

	writing := make(chan struct{})
	release := make(chan struct{})
	stored := make(chan struct{})
	go func() {
		defer close(stored)
		env.svc.store(gen, func() {
			close(writing)
			<-release
			env.svc.details.Set(13, games.Fallback(13))
		})
	}()

	<-writing
	cleared := make(chan struct{})
	go func() {
		defer close(cleared)
		env.svc.ClearCaches()
	}()

	// Give the clear a chance to run ahead of the write.
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-stored
	<-cleared

	assert.Zero(t, env.svc.Stats().DetailEntries)
	assert.Equal(t, uint64(1), env.svc.Stats().Generation)
}
