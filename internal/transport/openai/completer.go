package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/matchmate/internal/domain"
	"github.com/kailas-cloud/matchmate/internal/metrics"
)

const opComplete = "complete"

// CompleterConfig adds chat-specific knobs to Config.
type CompleterConfig struct {
	Config
	MaxTokens   int
	Temperature float32
}

// Completer is a chat completion provider using the OpenAI-compatible API.
type Completer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	user        string
	provider    string
}

// NewCompleter creates a chat completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Completer{
		client:      newClient(&cfg.Config),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		user:        cfg.User,
		provider:    cfg.Provider,
	}
}

// Complete implements domain.Completer with one system and one user message.
func (c *Completer) Complete(ctx context.Context, systemPrompt, userPrompt string) (domain.CompletionResult, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		User:        c.user,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.provider, c.model, opComplete, "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(c.provider, c.model, "api_error").Inc()
		return domain.CompletionResult{}, parseAPIError("completion", err, domain.ErrCompletionProviderError)
	}

	if len(resp.Choices) == 0 {
		metrics.ProviderRequestsTotal.WithLabelValues(c.provider, c.model, opComplete, "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(c.provider, c.model, "empty_response").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProviderError)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(c.provider, c.model, opComplete, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(c.provider, c.model, opComplete).Observe(duration.Seconds())
	metrics.ProviderTokensTotal.WithLabelValues(c.provider, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.ProviderTokensTotal.WithLabelValues(c.provider, c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	return domain.CompletionResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (c *Completer) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, c.client)
}
