package domain

import "context"

// DefaultEmbeddingDimensions is the vector width of the default embedding model
// (text-embedding-3-small). Degraded results use a zero vector of this width.
const DefaultEmbeddingDimensions = 1536

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies upstream provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// ZeroVector returns a zero vector of the given dimensionality.
func ZeroVector(dim int) []float32 {
	if dim <= 0 {
		dim = DefaultEmbeddingDimensions
	}
	return make([]float32, dim)
}

// IsZeroVector reports whether v is empty or has no non-zero component.
// A zero vector marks an embedding that could not be produced.
func IsZeroVector(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
