// Package similarity scores how alike two listings, or a search and a listing, are:
// cosine similarity over embeddings and keyword-level overlap when no embedding exists.
package similarity

import "math"

// Cosine returns dot(a,b) / (|a|*|b|) in [-1,1].
// Mismatched or empty inputs, NaN/Inf components, and zero norms all yield 0,
// so malformed vectors lower a score instead of aborting a search.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return 0
		}
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	}
	return sim
}

// Clamp01 restricts v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
