package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh reads by table
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgg_cache_hits_total",
			Help: "Total number of fresh cache reads",
		},
		[]string{"table"}, // "hot", "detail", "search"
	)

	// CacheMisses tracks reads that found no fresh entry
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgg_cache_misses_total",
			Help: "Total number of cache reads without a fresh entry",
		},
		[]string{"table"},
	)

	// StaleServed tracks expired entries returned as fallback
	StaleServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgg_cache_stale_served_total",
			Help: "Total number of stale entries served after an upstream failure",
		},
		[]string{"table"},
	)

	// CacheEntries tracks the number of entries per table
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bgg_cache_entries",
			Help: "Current number of cache entries",
		},
		[]string{"table"},
	)
)
