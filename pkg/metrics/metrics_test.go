package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sternrassler/bgg-cache/pkg/cache"
	"github.com/Sternrassler/bgg-cache/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/Sternrassler/bgg-cache/pkg/games"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, prometheus.DefaultRegisterer, metrics.Registry)
	assert.Equal(t, prometheus.DefaultGatherer, metrics.Gatherer)
}

func TestNames_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for _, name := range metrics.Names {
		assert.False(t, seen[name], "duplicate metric name %s", name)
		assert.True(t, strings.HasPrefix(name, "bgg_"), "metric %s lacks bgg_ prefix", name)
		seen[name] = true
	}
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	cache.CacheHits.WithLabelValues("metrics_test").Inc()

	srv := httptest.NewServer(metrics.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `bgg_cache_hits_total{table="metrics_test"} 1`)
	assert.Contains(t, string(body), "bgg_mapping_degraded_total")
}
