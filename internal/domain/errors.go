package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals an id collision on create.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidRequest signals malformed input from the caller.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals an LLM completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrQuotaExceeded signals that a provider token budget is exhausted.
	ErrQuotaExceeded = errors.New("provider token quota exceeded")
	// ErrProviderNotConfigured signals that an optional upstream has no credentials.
	ErrProviderNotConfigured = errors.New("provider not configured")
	// ErrRerankUnparsable signals an LLM ranking response with no usable lines.
	ErrRerankUnparsable = errors.New("rerank response unparsable")
	// ErrCandidateStoreUnavailable signals that listings could not be loaded at all.
	ErrCandidateStoreUnavailable = errors.New("candidate store unavailable")
)
