// Package embcache is a content-addressed embedding cache in front of the embedding provider.
//
// Entries are keyed by the SHA-256 of the trimmed text and carry the time they were
// computed. An entry older than the TTL is stale and gets recomputed. Provider calls are
// retried with backoff; when they keep failing the cache returns a zero vector instead of
// an error so a search never fails on embeddings alone.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmate/internal/db"
	"github.com/kailas-cloud/matchmate/internal/domain"
)

// DefaultTTL is how long a computed embedding stays fresh.
const DefaultTTL = 7 * 24 * time.Hour

const headerSize = 8 // unix-nano updatedAt

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Config tunes the cache.
type Config struct {
	KeyPrefix  string
	Dimensions int
	TTL        time.Duration
	Retry      RetryConfig
	// MemorySize enables an in-process LRU in front of the store. 0 disables it.
	MemorySize int
}

type entry struct {
	vec       []float32
	updatedAt time.Time
}

// CachedEmbedder caches embeddings in a key-value store.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	cfg        Config
	l1         *expirable.LRU[string, entry]
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger

	now   func() time.Time
	sleep sleepFunc
}

// New creates a caching decorator. inner may be nil when no provider is configured,
// in which case every lookup degrades to a zero vector.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"stale"), passed explicitly.
func New(
	inner domain.Embedder,
	s store,
	cfg Config,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.DefaultEmbeddingDimensions
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &CachedEmbedder{
		inner:      inner,
		store:      s,
		cfg:        cfg,
		cacheTotal: cacheTotal,
		logger:     logger,
		now:        time.Now,
		sleep:      sleepCtx,
	}
	if cfg.MemorySize > 0 {
		c.l1 = expirable.NewLRU[string, entry](cfg.MemorySize, nil, cfg.TTL)
	}
	return c
}

// Dimensions returns the vector width the cache produces.
func (c *CachedEmbedder) Dimensions() int { return c.cfg.Dimensions }

// Configured reports whether a provider is attached.
func (c *CachedEmbedder) Configured() bool { return c.inner != nil }

// Embed returns a fresh cached embedding or calls the provider.
// Cache hit: TotalTokens = 0. Provider failure or no provider: zero vector, nil error.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	text = strings.TrimSpace(text)
	if c.inner == nil || text == "" {
		return domain.EmbeddingResult{Embedding: domain.ZeroVector(c.cfg.Dimensions)}, nil
	}

	key := c.cacheKey(text)

	if vec, ok := c.lookup(ctx, key); ok {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	result, err := retryWithBackoff(ctx, c.cfg.Retry, c.sleep, func() (domain.EmbeddingResult, error) {
		res, err := c.inner.Embed(ctx, text)
		if err != nil {
			return domain.EmbeddingResult{}, err
		}
		if len(res.Embedding) != c.cfg.Dimensions {
			return domain.EmbeddingResult{}, fmt.Errorf("%w: got %d dimensions, want %d",
				domain.ErrEmbeddingProviderError, len(res.Embedding), c.cfg.Dimensions)
		}
		return res, nil
	})
	if err != nil {
		c.logger.Warn("Embedding degraded to zero vector",
			zap.String("key", key),
			zap.Int("attempts", c.cfg.Retry.Attempts),
			zap.Error(err),
		)
		return domain.EmbeddingResult{Embedding: domain.ZeroVector(c.cfg.Dimensions)}, nil
	}

	domain.UsageFromContext(ctx).AddEmbeddingTokens(result.TotalTokens)
	c.put(ctx, key, result.Embedding)
	return result, nil
}

// lookup checks L1 then the store, counting exactly one hit, miss or stale.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	now := c.now()

	if c.l1 != nil {
		if e, ok := c.l1.Get(key); ok && c.fresh(e, now) {
			c.incCache("hit")
			return e.vec, true
		}
	}

	e, found := c.getFromStore(ctx, key)
	switch {
	case !found:
		c.incCache("miss")
		return nil, false
	case !c.fresh(e, now):
		c.incCache("stale")
		return nil, false
	}

	c.incCache("hit")
	if c.l1 != nil {
		c.l1.Add(key, e)
	}
	return e.vec, true
}

func (c *CachedEmbedder) fresh(e entry, now time.Time) bool {
	return len(e.vec) == c.cfg.Dimensions && now.Sub(e.updatedAt) < c.cfg.TTL
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return c.cfg.KeyPrefix + "emb_cache:" + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromStore(ctx context.Context, key string) (entry, bool) {
	if c.store == nil {
		return entry{}, false
	}
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return entry{}, false
	}
	if len(data) == 0 {
		return entry{}, false
	}

	e, err := decodeEntry(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return entry{}, false
	}
	return e, true
}

// put writes through to L1 and the store. Store failures are logged and swallowed.
func (c *CachedEmbedder) put(ctx context.Context, key string, vec []float32) {
	e := entry{vec: vec, updatedAt: c.now()}
	if c.l1 != nil {
		c.l1.Add(key, e)
	}
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, key, encodeEntry(e)); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func encodeEntry(e entry) []byte {
	buf := make([]byte, headerSize+len(e.vec)*4)
	binary.LittleEndian.PutUint64(buf, uint64(e.updatedAt.UnixNano()))
	for i, f := range e.vec {
		binary.LittleEndian.PutUint32(buf[headerSize+i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEntry(data []byte) (entry, error) {
	if len(data) < headerSize || (len(data)-headerSize)%4 != 0 {
		return entry{}, fmt.Errorf("invalid embedding cache data: len=%d", len(data))
	}
	ts := int64(binary.LittleEndian.Uint64(data))
	body := data[headerSize:]
	vec := make([]float32, len(body)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}
	return entry{vec: vec, updatedAt: time.Unix(0, ts)}, nil
}
