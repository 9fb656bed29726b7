// Package matchmate is the embeddable SDK for the roommate matching engine.
//
// It wires the same listing store, embedding cache and ranking pipeline the HTTP
// service uses, on top of a Valkey or Redis connection.
package matchmate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmate/internal/db"
	dbRedis "github.com/kailas-cloud/matchmate/internal/db/redis"
	dbValkey "github.com/kailas-cloud/matchmate/internal/db/valkey"
	"github.com/kailas-cloud/matchmate/internal/domain"
	dommatch "github.com/kailas-cloud/matchmate/internal/domain/match"
	"github.com/kailas-cloud/matchmate/internal/metrics"
	"github.com/kailas-cloud/matchmate/internal/repository/embcache"
	listingrepo "github.com/kailas-cloud/matchmate/internal/repository/listing"
	healthuc "github.com/kailas-cloud/matchmate/internal/usecase/health"
	listinguc "github.com/kailas-cloud/matchmate/internal/usecase/listing"
	matchuc "github.com/kailas-cloud/matchmate/internal/usecase/match"
	"github.com/kailas-cloud/matchmate/internal/usecase/rerank"
	"github.com/kailas-cloud/matchmate/internal/usecase/scoring"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "matchmate:"
)

// Client is the matchmate SDK entry point.
type Client struct {
	store    db.Store
	listings *listinguc.Service
	matcher  *matchuc.Service
	health   *healthuc.Service
}

// New creates a Client and waits for the database to answer.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("matchmate: database address required (use WithValkey or WithRedis)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if err := registerMetrics(cfg.metricsReg); err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("matchmate: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey":
		s, err := dbValkey.NewStore(dbValkey.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("matchmate: create valkey store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("matchmate: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("matchmate: unknown driver %q", cfg.driver)
	}
}

// registerMetrics tolerates collectors a previous client already registered.
func registerMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	collectors := append(metrics.MatchCollectors(), metrics.ProviderCollectors()...)
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return fmt.Errorf("matchmate: register metrics: %w", err)
		}
	}
	return nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	logger := cfg.logger

	embedder := embcache.New(cfg.embedder, store, embcache.Config{
		KeyPrefix:  cfg.keyPrefix,
		Dimensions: cfg.dimensions,
		TTL:        cfg.embeddingTTL,
		MemorySize: cfg.memoryCache,
	}, metrics.EmbeddingCacheTotal, logger)

	// Nil interfaces, not typed nil pointers, for absent providers.
	var (
		reranker  matchuc.Reranker
		embHealth healthuc.ProviderChecker
		llmHealth healthuc.ProviderChecker
	)
	if cfg.completer != nil {
		reranker = rerank.New(cfg.completer, cfg.rerankMaxCands, logger)
		if hc, ok := cfg.completer.(domain.HealthChecker); ok {
			llmHealth = hc
		}
	}
	if hc, ok := cfg.embedder.(domain.HealthChecker); ok {
		embHealth = hc
	}

	repo := listingrepo.New(store, cfg.keyPrefix, logger)

	return &Client{
		store:    store,
		listings: listinguc.New(repo, embedder, logger),
		matcher: matchuc.New(repo, scoring.New(logger), embedder, reranker, matchuc.Config{
			DefaultStrategy:    cfg.strategy,
			MinStructuredScore: cfg.minStructuredScore,
			Concurrency:        cfg.concurrency,
		}, logger),
		health: healthuc.New(store, embHealth, llmHealth),
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Healthy reports whether the store and every configured provider answer.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.health.Check(ctx).Status == healthuc.Healthy
}

// CreateListing stores a new listing and returns it with its id and timestamps.
func (c *Client) CreateListing(ctx context.Context, l *Listing) (Listing, error) {
	out, err := c.listings.Create(ctx, l)
	if err != nil {
		return Listing{}, fmt.Errorf("create listing: %w", err)
	}
	return out, nil
}

// GetListing returns the listing by id.
func (c *Client) GetListing(ctx context.Context, id string) (Listing, error) {
	out, err := c.listings.Get(ctx, id)
	if err != nil {
		return Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return out, nil
}

// UpdateListing replaces the editable fields of a listing.
func (c *Client) UpdateListing(ctx context.Context, id string, l *Listing) (Listing, error) {
	out, err := c.listings.Update(ctx, id, l)
	if err != nil {
		return Listing{}, fmt.Errorf("update listing: %w", err)
	}
	return out, nil
}

// CloseListing removes a listing from every future search.
func (c *Client) CloseListing(ctx context.Context, id string) (Listing, error) {
	out, err := c.listings.Close(ctx, id)
	if err != nil {
		return Listing{}, fmt.Errorf("close listing: %w", err)
	}
	return out, nil
}

// Match ranks open listings of q.Target for the searcher.
func (c *Client) Match(ctx context.Context, q Query) ([]Result, error) {
	req, err := dommatch.NewRequest(
		q.SearcherID, q.Target, q.Description, q.Keywords, q.Filters, q.TopN, q.Strategy,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	results, err := c.matcher.Match(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	return results, nil
}
