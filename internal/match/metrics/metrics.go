// Package metrics exposes Prometheus instruments for the matching core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts lookups served from the match cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodmatch_cache_hits_total",
		Help: "Number of nearest-recipient lookups served from the cache",
	})

	// CacheMisses counts lookups that fell through to a directory scan,
	// including lookups where the cache backend errored (fail-open).
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodmatch_cache_misses_total",
		Help: "Number of nearest-recipient lookups that scanned the directory",
	})

	// CacheErrors counts cache backend failures absorbed by the engine.
	CacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodmatch_cache_errors_total",
		Help: "Number of cache backend errors treated as misses or dropped writes",
	})

	// Matches counts lookups that found a recipient inside the service radius.
	Matches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodmatch_matches_total",
		Help: "Number of donations matched to a recipient",
	})

	// NoMatches counts lookups with no recipient inside the service radius.
	NoMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodmatch_no_matches_total",
		Help: "Number of donations with no recipient in range",
	})

	// EventsConsumed counts donation events handled from the transport.
	EventsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodmatch_events_consumed_total",
		Help: "Number of donation events consumed",
	})

	// EventsSkipped counts malformed or invalid events dropped at intake.
	EventsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodmatch_events_skipped_total",
		Help: "Number of donation events dropped as malformed or out of range",
	})

	// ScanDurationMs observes directory scan latency in milliseconds.
	ScanDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "foodmatch_directory_scan_duration_ms",
		Help:    "Latency of full directory scans in milliseconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)
