// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	// ComparisonCount counts pairwise comparisons by whether they were comparable
	ComparisonCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codesim_comparisons_total",
			Help: "Total number of pairwise submission comparisons",
		},
		[]string{"comparable"},
	)

	BatchCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codesim_batches_total",
			Help: "Total number of comparison batches executed",
		},
	)

	EarlyExitCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codesim_early_exits_total",
			Help: "Runs stopped early by a perfect match",
		},
	)

	DefaultImplementationCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codesim_default_implementation_findings_total",
			Help: "Submissions with at least one function matching the reference",
		},
	)

	IngestedFileCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codesim_ingested_files_total",
			Help: "Submission files stored from the stream",
		},
	)

	DeadLetterCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codesim_dead_letters_total",
			Help: "Stream messages moved to the dead letter queue",
		},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codesim_analysis_duration_seconds",
			Help:    "Duration of a full similarity analysis run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

var registerOnce sync.Once

// InitPrometheus registers all collectors with the default registry.
// Safe to call more than once.
func InitPrometheus() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCount,
			RequestDuration,
			ComparisonCount,
			BatchCount,
			EarlyExitCount,
			DefaultImplementationCount,
			IngestedFileCount,
			DeadLetterCount,
			AnalysisDuration,
		)
	})
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveComparison records one finished comparison
func ObserveComparison(comparable bool) {
	label := "false"
	if comparable {
		label = "true"
	}
	ComparisonCount.WithLabelValues(label).Inc()
}
