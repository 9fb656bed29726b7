package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching pipeline Prometheus metrics.
var (
	MatchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_requests_total",
			Help:      "Completed searches by requested strategy and the method that produced the ranking",
		},
		[]string{"strategy", "method"},
	)

	MatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	MatchFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_fallbacks_total",
			Help:      "Strategy degradations",
		},
		[]string{"from", "to", "reason"},
	)

	MatchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_candidates",
			Help:      "Candidate pool size per search",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	RerankOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_outcomes_total",
			Help:      "LLM rerank results",
		},
		[]string{"outcome"}, // "ok" / "skipped" / "error" / "unparsable"
	)
)

var matchMetricsRegistered bool

// RegisterMatchMetrics registers matching metrics. Must be called once from main.
func RegisterMatchMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchCollectors()...)
	matchMetricsRegistered = true
}

// MatchCollectors lists matching metrics for registration on a custom registry.
func MatchCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		MatchRequestsTotal,
		MatchDuration,
		MatchFallbacksTotal,
		MatchCandidates,
		RerankOutcomesTotal,
	}
}
