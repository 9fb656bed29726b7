package matchmate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string

	keyPrefix string

	embedder       Embedder
	dimensions     int
	embeddingTTL   time.Duration
	memoryCache    int
	completer      Completer
	rerankMaxCands int

	strategy           Strategy
	minStructuredScore float64
	concurrency        int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithKeyPrefix namespaces every key the client writes. Default: "matchmate:".
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithEmbedder enables semantic matching. dimensions must match the vectors e returns.
func WithEmbedder(e Embedder, dimensions int) Option {
	return func(c *clientConfig) {
		c.embedder = e
		c.dimensions = dimensions
	}
}

// WithEmbeddingCache tunes embedding freshness and the in-process LRU size (0 disables it).
func WithEmbeddingCache(ttl time.Duration, memorySize int) Option {
	return func(c *clientConfig) {
		c.embeddingTTL = ttl
		c.memoryCache = memorySize
	}
}

// WithCompleter enables LLM reranking. maxCandidates caps how many listings go into the prompt.
func WithCompleter(cm Completer, maxCandidates int) Option {
	return func(c *clientConfig) {
		c.completer = cm
		c.rerankMaxCands = maxCandidates
	}
}

// WithStrategy sets the strategy used when a query does not name one. Default: ai.
func WithStrategy(s Strategy) Option {
	return func(c *clientConfig) {
		c.strategy = s
	}
}

// WithMinStructuredScore sets the filter score a listing needs to reach the LLM.
func WithMinStructuredScore(v float64) Option {
	return func(c *clientConfig) {
		c.minStructuredScore = v
	}
}

// WithConcurrency bounds parallel candidate embedding calls.
func WithConcurrency(n int) Option {
	return func(c *clientConfig) {
		c.concurrency = n
	}
}

// WithLogger enables structured logging. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithPrometheus registers matching and provider metrics on the given registerer.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.metricsReg = reg
	}
}
