// Package provider wraps the upstream embedding and completion clients with token
// budget enforcement and request logging.
package provider

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmate/internal/domain"
	"github.com/kailas-cloud/matchmate/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedEmbedder wraps an Embedder with budget enforcement and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. budget may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Embed checks the budget, delegates, and records usage.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := checkBudget(ctx, p.budget, p.provider, p.model, p.logger); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	recordBudget(p.budget, p.provider, result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// InstrumentedCompleter wraps a Completer with budget enforcement and logging.
type InstrumentedCompleter struct {
	inner    domain.Completer
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedCompleter wraps a completer. budget may be nil.
func NewInstrumentedCompleter(
	inner domain.Completer, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedCompleter {
	return &InstrumentedCompleter{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Complete checks the budget, delegates, and records usage in the budget and request context.
func (p *InstrumentedCompleter) Complete(
	ctx context.Context, systemPrompt, userPrompt string,
) (domain.CompletionResult, error) {
	if err := checkBudget(ctx, p.budget, p.provider, p.model, p.logger); err != nil {
		return domain.CompletionResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Complete(ctx, systemPrompt, userPrompt)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Completion request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}

	tokens := result.PromptTokens + result.CompletionTokens
	recordBudget(p.budget, p.provider, tokens)
	domain.UsageFromContext(ctx).AddCompletionTokens(tokens)

	p.logger.Debug("Completion request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Int("content_length", len(result.Content)),
	)

	return result, nil
}

func checkBudget(ctx context.Context, budget BudgetChecker, provider, model string, logger *zap.Logger) error {
	if budget == nil {
		return nil
	}
	if err := budget.Check(ctx); err != nil {
		logger.Error("Budget exceeded",
			zap.String("provider", provider),
			zap.String("model", model),
			zap.Error(err),
		)
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

func recordBudget(budget BudgetChecker, provider string, tokens int) {
	if budget == nil || tokens <= 0 {
		return
	}
	budget.Record(int64(tokens))
	remaining := metrics.ProviderBudgetTokensRemaining
	remaining.WithLabelValues(provider, "daily").Set(float64(budget.RemainingDaily()))
	remaining.WithLabelValues(provider, "monthly").Set(float64(budget.RemainingMonthly()))
}
