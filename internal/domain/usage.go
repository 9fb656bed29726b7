package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects provider token usage for a single search or listing write.
// The handler puts a pointer into the context before calling the service;
// embedding and completion calls add to it; the handler reads it for response headers.
type Usage struct {
	mu               sync.Mutex
	embeddingTokens  int
	completionTokens int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records embedding tokens. Safe on a nil receiver.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += n
	u.mu.Unlock()
}

// AddCompletionTokens records LLM tokens. Safe on a nil receiver.
func (u *Usage) AddCompletionTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.completionTokens += n
	u.mu.Unlock()
}

// EmbeddingTokens returns the embedding tokens recorded so far.
func (u *Usage) EmbeddingTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens
}

// CompletionTokens returns the LLM tokens recorded so far.
func (u *Usage) CompletionTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.completionTokens
}
