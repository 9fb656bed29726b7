package domain

import "context"

// Completer is the LLM completion contract. The returned text is unstructured
// and must be parsed defensively by the caller.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (CompletionResult, error)
}

// CompletionResult carries the model output and token usage.
type CompletionResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}
