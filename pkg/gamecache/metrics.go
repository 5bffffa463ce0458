package gamecache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// inflightShared counts callers that received the result of a fetch started
// by another caller.
var inflightShared = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bgg_inflight_shared_total",
		Help: "Total number of cache misses served by an already running fetch",
	},
	[]string{"table"},
)
