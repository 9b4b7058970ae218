// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	DesignOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "design_operations_total",
			Help: "Lifecycle operations by name and outcome.",
		}, []string{"op", "result"})

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Latency of calls to the design and deployment API.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"call"})

	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Record store reads and writes by backend and outcome.",
		}, []string{"backend", "op", "result"})

	ResolveCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolve_cache_total",
			Help: "Resolution cache lookups by result (hit, miss).",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		DesignOperationsTotal,
		UpstreamRequestDuration,
		StoreOperationsTotal,
		ResolveCacheTotal,
	)
}

// Outcome maps an error to a result label.
func Outcome(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
