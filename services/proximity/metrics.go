package proximity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "proximity_query_duration_seconds",
		Help:    "Duration of proximity queries",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"source", "mode"})

	cellsScanned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "proximity_cells_scanned",
		Help:    "Number of geocell ranges scanned per query",
		Buckets: []float64{1, 2, 4, 8, 16},
	})

	falsePositivesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proximity_false_positives_dropped_total",
		Help: "Candidates returned by a cell scan but outside the radius",
	}, []string{"source"})

	cacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proximity_cache_results_total",
		Help: "Proximity cache lookups by outcome",
	}, []string{"outcome"})

	queryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proximity_query_failures_total",
		Help: "Proximity queries that failed because the store was unavailable",
	}, []string{"source"})
)
