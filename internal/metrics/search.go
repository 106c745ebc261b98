package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval Prometheus metrics.
var (
	SearchTierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopdex",
			Name:      "search_tier_total",
			Help:      "Retrieval tier executions by outcome",
		},
		[]string{"tier", "outcome"}, // outcome: "hit" / "empty" / "error"
	)

	SearchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shopdex",
			Name:      "search_results_returned",
			Help:      "Number of hits returned by the retrieval engine",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	KeywordBoostsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shopdex",
			Name:      "search_keyword_boosts_total",
			Help:      "Hits boosted by the vector-only keyword heuristic",
		},
	)

	IntentExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopdex",
			Name:      "intent_extractions_total",
			Help:      "Chat intent extractions by outcome",
		},
		[]string{"outcome"}, // "ok" / "follow_up" / "error"
	)

	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopdex",
			Name:      "chat_requests_total",
			Help:      "Chat completion requests by status",
		},
		[]string{"model", "status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "shopdex",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open)",
		},
		[]string{"operation"},
	)
)

var searchMetricsOnce sync.Once

// RegisterSearchMetrics registers retrieval metrics. Safe to call more than once.
func RegisterSearchMetrics() {
	searchMetricsOnce.Do(func() {
		prometheus.MustRegister(SearchTierTotal)
		prometheus.MustRegister(SearchResultsReturned)
		prometheus.MustRegister(KeywordBoostsTotal)
		prometheus.MustRegister(IntentExtractionsTotal)
		prometheus.MustRegister(ChatRequestsTotal)
		prometheus.MustRegister(CircuitBreakerState)
	})
}
