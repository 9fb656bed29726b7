package health

import "context"

// DBPinger checks store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an upstream provider (embeddings, LLM).
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
