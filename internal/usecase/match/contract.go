package match

import (
	"context"

	"github.com/kailas-cloud/matchmate/internal/domain"
	"github.com/kailas-cloud/matchmate/internal/domain/listing"
	dommatch "github.com/kailas-cloud/matchmate/internal/domain/match"
)

// ListingStore loads every listing of a type. Closed listings may be included.
type ListingStore interface {
	ListByType(ctx context.Context, t listing.Type) ([]listing.Listing, error)
}

// Embedder produces embeddings and degrades to zero vectors instead of failing.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	Dimensions() int
	Configured() bool
}

// Reranker orders candidates with an LLM.
type Reranker interface {
	Rerank(ctx context.Context, searchText string, candidates []dommatch.Result, topN int) ([]dommatch.Result, error)
}

// Scorer computes structured scores.
type Scorer interface {
	Score(l *listing.Listing, f *dommatch.Filters, target listing.Type) dommatch.Breakdown
}
