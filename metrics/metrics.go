package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campfire_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Places provider
	PlacesCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campfire_places_calls_total",
			Help: "Places provider calls by operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)

	PlacesCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campfire_places_call_duration_seconds",
			Help:    "Latency of places provider calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	// Candidate cache
	CandidateCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campfire_candidate_cache_hits_total",
			Help: "Candidate searches served from stored restaurants",
		},
	)

	CandidateCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campfire_candidate_cache_misses_total",
			Help: "Candidate searches that went to the places provider",
		},
	)

	// Filters
	FilterSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campfire_filter_skips_total",
			Help: "Filter steps skipped because they would leave too few candidates",
		},
		[]string{"filter"},
	)

	// Ranking
	RankingOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campfire_ranking_outcomes_total",
			Help: "Ranking calls by outcome (ranked, empty, error, fallback)",
		},
		[]string{"outcome"},
	)

	RankingDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campfire_ranking_dropped_refs_total",
			Help: "Ranking lines discarded for unknown or duplicate indexes",
		},
	)

	// Recommendations
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campfire_recommendation_duration_seconds",
			Help:    "End-to-end duration of recommendation requests",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"outcome"},
	)

	RecommendationPoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campfire_recommendation_pool_size",
			Help:    "Candidates left after filtering",
			Buckets: []float64{0, 1, 3, 5, 10, 20, 40, 80},
		},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "campfire_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campfire_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

func RecordPlacesCall(provider, operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	PlacesCalls.WithLabelValues(provider, operation, outcome).Inc()
	PlacesCallDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

func RecordCacheLookup(hit bool) {
	if hit {
		CandidateCacheHits.Inc()
		return
	}
	CandidateCacheMisses.Inc()
}

func RecordFilterSkip(filter string) {
	FilterSkips.WithLabelValues(filter).Inc()
}

func RecordRanking(outcome string) {
	RankingOutcomes.WithLabelValues(outcome).Inc()
}

func RecordRecommendation(outcome string, duration time.Duration) {
	RecommendationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordBreakerTransition takes gobreaker's state strings ("closed",
// "half-open", "open")
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
