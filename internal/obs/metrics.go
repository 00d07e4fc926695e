package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SearchesTotal counts orchestrated searches by final outcome
	// (ok, no_inventory, unresolved_country, exhausted, error).
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tour_searches_total",
			Help: "Total number of orchestrated tour searches by outcome",
		},
		[]string{"outcome"},
	)

	// PollAttemptsTotal counts individual poll calls against the upstream.
	PollAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tour_poll_attempts_total",
			Help: "Total number of result poll attempts",
		},
	)

	// CacheLookups counts reference-data cache accesses by category and
	// result (hit, miss, fallback).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reference_cache_lookups_total",
			Help: "Reference-data cache lookups by category and result",
		},
		[]string{"category", "result"},
	)

	// UpstreamErrors counts transport failures per upstream host.
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_transport_errors_total",
			Help: "Transport-level failures calling upstream endpoints",
		},
		[]string{"host"},
	)
)

// MetricsHandler exposes the default prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
