package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a provider is down; matching still works through fallbacks.
	Degraded Status = "degraded"
	// Unhealthy indicates the listing store is down and nothing can be matched.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentLLM       = "llm"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	providers map[string]ProviderChecker
	timeout   time.Duration
}

// New creates a Service. embedding and llm can be nil when not configured.
func New(db DBPinger, embedding, llm ProviderChecker) *Service {
	providers := make(map[string]ProviderChecker, 2)
	if embedding != nil {
		providers[ComponentEmbedding] = embedding
	}
	if llm != nil {
		providers[ComponentLLM] = llm
	}
	return &Service{db: db, providers: providers, timeout: DefaultCheckTimeout}
}

// WithTimeout overrides the per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs all component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, len(s.providers)+1)
	)
	run := func(name string, fn func(context.Context) error) func() error {
		return func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			res := CheckOK
			if err := fn(cctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
			return nil
		}
	}

	var g errgroup.Group
	g.Go(run(ComponentDatabase, s.db.Ping))
	for name, p := range s.providers {
		g.Go(run(name, p.HealthCheck))
	}
	_ = g.Wait() // checks record failures instead of returning them

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentDatabase] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
