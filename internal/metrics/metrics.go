// Package metrics exposes the app's Prometheus counters. Collection is
// always on; whether /metrics is served is a config decision.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ComputeCalls counts cost computations by caller surface ("api", "order",
// "report").
var ComputeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tetsuba_compute_calls_total",
	Help: "Number of cost computations performed, by surface.",
}, []string{"surface"})

// PriceGaps counts price lookups that resolved to 0 because no record
// covered the reference date. A spike usually means the price history of a
// material was never opened.
var PriceGaps = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tetsuba_price_gaps_total",
	Help: "Number of price lookups that found no applicable record.",
})
