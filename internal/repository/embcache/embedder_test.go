package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/matchmate/internal/domain"
)

func TestEmbed_CacheMissThenHit(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()

	first, err := h.ce.Embed(ctx, "quiet room near campus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalTokens != 7 {
		t.Errorf("expected TotalTokens=7 on miss, got %d", first.TotalTokens)
	}

	h.clock.Advance(6 * 24 * time.Hour)
	second, err := h.ce.Embed(ctx, "  quiet room near campus\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.inner.Calls() != 1 {
		t.Fatalf("expected a single provider call, got %d", h.inner.Calls())
	}
	if second.TotalTokens != 0 {
		t.Errorf("expected TotalTokens=0 on hit, got %d", second.TotalTokens)
	}
	for i := range first.Embedding {
		if first.Embedding[i] != second.Embedding[i] {
			t.Fatalf("cached vector differs: %v vs %v", first.Embedding, second.Embedding)
		}
	}
	if got := testutil.ToFloat64(h.counts.WithLabelValues("hit")); got != 1 {
		t.Errorf("expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(h.counts.WithLabelValues("miss")); got != 1 {
		t.Errorf("expected 1 miss, got %v", got)
	}
}

func TestEmbed_StaleAfterTTL(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()

	if _, err := h.ce.Embed(ctx, "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.clock.Advance(DefaultTTL + time.Second)
	if _, err := h.ce.Embed(ctx, "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.inner.Calls() != 2 {
		t.Fatalf("expected stale entry to be recomputed, got %d calls", h.inner.Calls())
	}
	if got := testutil.ToFloat64(h.counts.WithLabelValues("stale")); got != 1 {
		t.Errorf("expected 1 stale, got %v", got)
	}
	if h.store.sets != 2 {
		t.Errorf("expected entry rewritten, got %d sets", h.store.sets)
	}
}

func TestEmbed_WrongWidthEntryIsStale(t *testing.T) {
	h := newHarness(t, 0)
	key := h.ce.cacheKey("text")
	h.store.data[key] = encodeEntry(entry{vec: vec(1, 2), updatedAt: h.clock.Now()})

	res, err := h.ce.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != testDim {
		t.Fatalf("expected %d dims, got %d", testDim, len(res.Embedding))
	}
	if h.inner.Calls() != 1 {
		t.Errorf("expected provider call, got %d", h.inner.Calls())
	}
}

func TestEmbed_RetriesThenSucceeds(t *testing.T) {
	h := newHarness(t, 0)
	h.inner.errs = []error{errors.New("503"), errors.New("timeout")}

	res, err := h.ce.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if domain.IsZeroVector(res.Embedding) {
		t.Fatal("expected real vector after retries")
	}
	if h.inner.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", h.inner.Calls())
	}
	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(h.sleeps) != len(want) || h.sleeps[0] != want[0] || h.sleeps[1] != want[1] {
		t.Errorf("expected backoff %v, got %v", want, h.sleeps)
	}
}

func TestEmbed_AllAttemptsFailDegradesToZero(t *testing.T) {
	h := newHarness(t, 0)
	boom := errors.New("provider down")
	h.inner.errs = []error{boom, boom, boom}

	res, err := h.ce.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("expected degraded result without error, got %v", err)
	}
	if len(res.Embedding) != testDim || !domain.IsZeroVector(res.Embedding) {
		t.Fatalf("expected zero vector of width %d, got %v", testDim, res.Embedding)
	}
	if h.inner.Calls() != 3 {
		t.Errorf("expected 3 attempts, got %d", h.inner.Calls())
	}
	if h.store.sets != 0 {
		t.Errorf("degraded vector must not be cached, got %d sets", h.store.sets)
	}
}

func TestEmbed_QuotaIsNotRetried(t *testing.T) {
	h := newHarness(t, 0)
	h.inner.errs = []error{domain.ErrQuotaExceeded}

	res, _ := h.ce.Embed(context.Background(), "text")
	if !domain.IsZeroVector(res.Embedding) {
		t.Fatal("expected zero vector")
	}
	if h.inner.Calls() != 1 {
		t.Errorf("expected a single call, got %d", h.inner.Calls())
	}
}

func TestEmbed_ProviderWrongWidthIsFailure(t *testing.T) {
	h := newHarness(t, 0)
	h.inner.result.Embedding = vec(1, 2, 3)

	res, _ := h.ce.Embed(context.Background(), "text")
	if len(res.Embedding) != testDim || !domain.IsZeroVector(res.Embedding) {
		t.Fatalf("expected zero vector, got %v", res.Embedding)
	}
}

func TestEmbed_NoProviderReturnsZero(t *testing.T) {
	ce := New(nil, nil, Config{Dimensions: 8}, nil, nil)

	res, err := ce.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 8 || !domain.IsZeroVector(res.Embedding) {
		t.Fatalf("expected 8-wide zero vector, got %v", res.Embedding)
	}
	if ce.Configured() {
		t.Error("expected Configured()=false")
	}
}

func TestEmbed_DefaultsToProviderWidth(t *testing.T) {
	ce := New(nil, nil, Config{}, nil, nil)
	res, _ := ce.Embed(context.Background(), "x")
	if len(res.Embedding) != domain.DefaultEmbeddingDimensions {
		t.Fatalf("expected %d dims, got %d", domain.DefaultEmbeddingDimensions, len(res.Embedding))
	}
}

func TestEmbed_StoreErrorsAreSwallowed(t *testing.T) {
	h := newHarness(t, 0)
	h.store.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	h.store.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("connection refused")
	}

	res, err := h.ce.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if domain.IsZeroVector(res.Embedding) {
		t.Fatal("expected provider vector despite store failure")
	}
}

func TestEmbed_CorruptEntryIsMiss(t *testing.T) {
	h := newHarness(t, 0)
	h.store.data[h.ce.cacheKey("text")] = []byte{1, 2, 3}

	if _, err := h.ce.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.inner.Calls() != 1 {
		t.Errorf("expected provider call, got %d", h.inner.Calls())
	}
}

func TestEmbed_MemoryLayerSkipsStore(t *testing.T) {
	h := newHarness(t, 16)
	ctx := context.Background()

	if _, err := h.ce.Embed(ctx, "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var storeReads int
	h.store.getFn = func(_ context.Context, _ string) ([]byte, error) {
		storeReads++
		return nil, errors.New("should not be read")
	}

	if _, err := h.ce.Embed(ctx, "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storeReads != 0 {
		t.Errorf("expected L1 hit without store read, got %d reads", storeReads)
	}
	if h.inner.Calls() != 1 {
		t.Errorf("expected 1 provider call, got %d", h.inner.Calls())
	}
}

func TestEmbed_UsageRecordedOnMiss(t *testing.T) {
	h := newHarness(t, 0)
	ctx, usage := domain.NewContextWithUsage(context.Background())

	_, _ = h.ce.Embed(ctx, "text")
	_, _ = h.ce.Embed(ctx, "text")

	if usage.EmbeddingTokens() != 7 {
		t.Errorf("expected 7 tokens (one miss), got %d", usage.EmbeddingTokens())
	}
}

func TestEntryRoundTrip(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	e, err := decodeEntry(encodeEntry(entry{vec: vec(0.5, -1, 3.25), updatedAt: at}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !e.updatedAt.Equal(at) {
		t.Errorf("timestamp mismatch: %v", e.updatedAt)
	}
	if len(e.vec) != 3 || e.vec[1] != -1 || e.vec[2] != 3.25 {
		t.Errorf("vector mismatch: %v", e.vec)
	}
}
