package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
	apiErrorsTotal          *prometheus.CounterVec
	gradingCommitsTotal     *prometheus.CounterVec
	gradingConflictsTotal   prometheus.Counter
	statusResolutionsTotal  *prometheus.CounterVec
	statusResolutionSeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradingCommitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_operations_total",
			Help: "Grading commits and undos by resulting verdict.",
		}, []string{"operation", "verdict"})

		gradingConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_conflicts_total",
			Help: "Grading writes rejected because another reviewer changed the submission first.",
		})

		statusResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "target_status_resolutions_total",
			Help: "Target status resolutions by status and cache outcome.",
		}, []string{"status", "cache"})

		statusResolutionSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "target_status_resolution_seconds",
			Help:    "Time spent resolving a target status, cache lookups included.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			gradingCommitsTotal,
			gradingConflictsTotal,
			statusResolutionsTotal,
			statusResolutionSeconds,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GradingOperations counts commits and undos labelled by operation and verdict.
func GradingOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingCommitsTotal
}

// GradingConflicts counts optimistic-lock conflicts.
func GradingConflicts() prometheus.Counter {
	RegisterMetrics()
	return gradingConflictsTotal
}

// StatusResolutions counts resolutions labelled by status and cache hit/miss.
func StatusResolutions() *prometheus.CounterVec {
	RegisterMetrics()
	return statusResolutionsTotal
}

// StatusResolutionLatency observes resolution durations.
func StatusResolutionLatency() prometheus.Histogram {
	RegisterMetrics()
	return statusResolutionSeconds
}
