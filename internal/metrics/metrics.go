package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripreco_api_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// Table reads
	TableLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripreco_table_load_duration_seconds",
			Help:    "Duration of source table loads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	TableLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripreco_table_load_errors_total",
			Help: "Total number of failed source table loads",
		},
		[]string{"table"},
	)

	// Recommendations
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripreco_recommendations_total",
			Help: "Recommendation queries by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: hit, empty, error
	)

	FoodClusterFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripreco_food_cluster_fallbacks_total",
			Help: "Food queries that dropped the cluster restriction",
		},
	)

	ClusterAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripreco_cluster_assignments_total",
			Help: "Cluster predictions by assigned cluster",
		},
		[]string{"cluster"},
	)

	// Geocoding
	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripreco_geocode_requests_total",
			Help: "Geocoding API calls by operation and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: ok, unknown, error, breaker_open
	)
)

// Outcome labels.
const (
	OutcomeHit   = "hit"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, endpoint, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordTableLoad records one table read and its error, if any.
func RecordTableLoad(table string, duration time.Duration, err error) {
	TableLoadDuration.WithLabelValues(table).Observe(duration.Seconds())
	if err != nil {
		TableLoadErrors.WithLabelValues(table).Inc()
	}
}

// RecordRecommendation classifies a query result.
func RecordRecommendation(kind string, found bool, err error) {
	switch {
	case err != nil:
		Recommendations.WithLabelValues(kind, OutcomeError).Inc()
	case found:
		Recommendations.WithLabelValues(kind, OutcomeHit).Inc()
	default:
		Recommendations.WithLabelValues(kind, OutcomeEmpty).Inc()
	}
}

func RecordClusterAssignment(cluster int) {
	ClusterAssignments.WithLabelValues(strconv.Itoa(cluster)).Inc()
}

func RecordGeocode(operation, outcome string) {
	GeocodeRequests.WithLabelValues(operation, outcome).Inc()
}
