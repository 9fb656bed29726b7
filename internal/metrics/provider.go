package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "matchmate"

// Upstream provider Prometheus metrics (embeddings and chat completions).
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of upstream provider requests",
		},
		[]string{"provider", "model", "operation", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model", "operation"},
	)

	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_tokens_total",
			Help:      "Total provider tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Total upstream provider errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	ProviderBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_budget_tokens_remaining",
			Help:      "Remaining token budget",
		},
		[]string{"provider", "period"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by outcome",
		},
		[]string{"result"}, // "hit" / "miss" / "stale"
	)
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers provider metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderCollectors()...)
	providerMetricsRegistered = true
}

// ProviderCollectors lists provider metrics for registration on a custom registry.
func ProviderCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		ProviderRequestsTotal,
		ProviderRequestDuration,
		ProviderTokensTotal,
		ProviderErrorsTotal,
		ProviderBudgetTokensRemaining,
		EmbeddingCacheTotal,
	}
}
