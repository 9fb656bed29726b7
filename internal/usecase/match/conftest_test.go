package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/matchmate/internal/domain"
	"github.com/kailas-cloud/matchmate/internal/domain/listing"
	dommatch "github.com/kailas-cloud/matchmate/internal/domain/match"
	"github.com/kailas-cloud/matchmate/internal/usecase/scoring"
)

const testDim = 3

type mockListingStore struct {
	listings []listing.Listing
	err      error
}

func (m *mockListingStore) ListByType(_ context.Context, t listing.Type) ([]listing.Listing, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []listing.Listing
	for _, l := range m.listings {
		if l.Type == t {
			out = append(out, l)
		}
	}
	return out, nil
}

// mockEmbedder maps text to a vector; unknown text yields a zero vector, like the cache does.
type mockEmbedder struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	configured bool
	calls      []string
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{vectors: map[string][]float32{}, configured: true}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, text)
	if v, ok := m.vectors[text]; ok {
		return domain.EmbeddingResult{Embedding: v}, nil
	}
	return domain.EmbeddingResult{Embedding: domain.ZeroVector(testDim)}, nil
}

func (m *mockEmbedder) Dimensions() int  { return testDim }
func (m *mockEmbedder) Configured() bool { return m.configured }

func (m *mockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type mockReranker struct {
	rerankFn func(ctx context.Context, text string, cs []dommatch.Result, topN int) ([]dommatch.Result, error)
	calls    int
	got      []dommatch.Result
}

func (m *mockReranker) Rerank(
	ctx context.Context, text string, cs []dommatch.Result, topN int,
) ([]dommatch.Result, error) {
	m.calls++
	m.got = cs
	if m.rerankFn != nil {
		return m.rerankFn(ctx, text, cs, topN)
	}
	out := append([]dommatch.Result(nil), cs[:topN]...)
	for i := range out {
		out[i].Method = dommatch.MethodAI
	}
	return out, nil
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// room builds an open room listing created `age` hours before baseTime.
func room(id, user, description string, price float64, age int) listing.Listing {
	p := price
	return listing.Listing{
		ID:          id,
		UserID:      user,
		Type:        listing.TypeRoom,
		Title:       "Room " + id,
		Description: description,
		Price:       &p,
		CreatedAt:   baseTime.Add(-time.Duration(age) * time.Hour),
	}
}

// withKeywords pins a listing's keywords so titles do not leak into keyword scores.
func withKeywords(l listing.Listing, kws ...string) listing.Listing {
	l.Keywords = kws
	return l
}

func newRequest(t *testing.T, text string, f dommatch.Filters, topN int, s dommatch.Strategy) *dommatch.Request {
	t.Helper()
	req, err := dommatch.NewRequest("searcher", listing.TypeRoom, text, nil, f, topN, s)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return &req
}

func newService(store ListingStore, emb Embedder, rr Reranker) *Service {
	var (
		e Embedder
		r Reranker
	)
	// Keep typed nils out of the interfaces.
	if m, ok := emb.(*mockEmbedder); !ok || m != nil {
		e = emb
	}
	if m, ok := rr.(*mockReranker); !ok || m != nil {
		r = rr
	}
	return New(store, scoring.New(nil), e, r, Config{}, nil)
}

func resultIDs(rs []dommatch.Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Listing.ID
	}
	return out
}
