package embcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmate/internal/db"
	"github.com/kailas-cloud/matchmate/internal/domain"
)

const testDim = 4

type mockEmbedder struct {
	mu     sync.Mutex
	result domain.EmbeddingResult
	errs   []error // consumed one per call before result is returned
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return domain.EmbeddingResult{}, err
	}
	return m.result, nil
}

func (m *mockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockKVStore is a map-backed store with optional hooks.
type mockKVStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
	sets  int
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.sets++
	m.mu.Unlock()
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type testHarness struct {
	ce     *CachedEmbedder
	inner  *mockEmbedder
	store  *mockKVStore
	clock  *fakeClock
	sleeps []time.Duration
	counts *prometheus.CounterVec
}

func vec(vals ...float32) []float32 { return vals }

func newHarness(t *testing.T, memorySize int) *testHarness {
	t.Helper()
	h := &testHarness{
		inner: &mockEmbedder{result: domain.EmbeddingResult{
			Embedding:    vec(0.1, 0.2, 0.3, 0.4),
			PromptTokens: 7,
			TotalTokens:  7,
		}},
		store: &mockKVStore{data: map[string][]byte{}},
		clock: &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		counts: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "test_embedding_cache_total"},
			[]string{"result"},
		),
	}
	h.ce = New(h.inner, h.store, Config{
		KeyPrefix:  "test:",
		Dimensions: testDim,
		MemorySize: memorySize,
	}, h.counts, zap.NewNop())
	h.ce.now = h.clock.Now
	h.ce.sleep = func(_ context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return nil
	}
	return h
}
