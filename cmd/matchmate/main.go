package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmate/internal/config"
	"github.com/kailas-cloud/matchmate/internal/db"
	dbRedis "github.com/kailas-cloud/matchmate/internal/db/redis"
	dbValkey "github.com/kailas-cloud/matchmate/internal/db/valkey"
	dommatch "github.com/kailas-cloud/matchmate/internal/domain/match"
	logpkg "github.com/kailas-cloud/matchmate/internal/logger"
	"github.com/kailas-cloud/matchmate/internal/metrics"
	budgetrepo "github.com/kailas-cloud/matchmate/internal/repository/budget"
	"github.com/kailas-cloud/matchmate/internal/repository/embcache"
	listingrepo "github.com/kailas-cloud/matchmate/internal/repository/listing"
	chiTransport "github.com/kailas-cloud/matchmate/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/matchmate/internal/transport/openai"
	healthuc "github.com/kailas-cloud/matchmate/internal/usecase/health"
	listinguc "github.com/kailas-cloud/matchmate/internal/usecase/listing"
	matchuc "github.com/kailas-cloud/matchmate/internal/usecase/match"
	"github.com/kailas-cloud/matchmate/internal/usecase/provider"
	"github.com/kailas-cloud/matchmate/internal/usecase/rerank"
	"github.com/kailas-cloud/matchmate/internal/usecase/scoring"
	"github.com/kailas-cloud/matchmate/internal/version"
)

const providerName = "openai"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(version.String())
		return
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting matchmate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("embedding_enabled", cfg.Embedding.Enabled()),
		zap.Bool("llm_enabled", cfg.LLM.Enabled()),
	)

	store, err := newStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterProviderMetrics()
	metrics.RegisterMatchMetrics()

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budget provider.BudgetChecker
	if cfg.Budget.DailyTokens > 0 || cfg.Budget.MonthlyTokens > 0 {
		budget = provider.NewBudgetTracker(
			providerName, cfg.Storage.KeyPrefix,
			cfg.Budget.DailyTokens, cfg.Budget.MonthlyTokens,
			provider.BudgetAction(cfg.Budget.Action), logger,
		).WithStore(ctx, budgetrepo.New(store))
	}

	embedder, embHealth := buildEmbedder(cfg, store, budget, logger)
	reranker, llmHealth := buildReranker(cfg, budget, logger)

	listings := listingrepo.New(store, cfg.Storage.KeyPrefix, logger)
	listingSvc := listinguc.New(listings, embedder, logger)

	var rr matchuc.Reranker
	if reranker != nil {
		rr = reranker
	}
	scorer := scoring.New(logger).WithDefaultRadius(cfg.Matching.DefaultRadiusKm)
	matchSvc := matchuc.New(listings, scorer, embedder, rr, matchuc.Config{
		DefaultStrategy:    dommatch.Strategy(cfg.Matching.Strategy),
		MinStructuredScore: cfg.Matching.MinStructuredScore,
		Concurrency:        cfg.Embedding.Concurrency,
	}, logger)

	healthSvc := healthuc.New(store, embHealth, llmHealth)

	server := chiTransport.NewServer(matchSvc, listingSvc, healthSvc, logger).
		WithLimits(chiTransport.MatchLimits{
			DefaultTopN: cfg.Matching.DefaultTopN,
			MaxTopN:     cfg.Matching.MaxTopN,
		})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "valkey":
		s, err := dbValkey.NewStore(dbValkey.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, fmt.Errorf("create valkey store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Cached.
// Without a provider the cache still answers, with zero vectors.
func buildEmbedder(
	cfg config.Config, store db.Store, budget provider.BudgetChecker, logger *zap.Logger,
) (*embcache.CachedEmbedder, healthuc.ProviderChecker) {
	cacheCfg := embcache.Config{
		KeyPrefix:  cfg.Storage.KeyPrefix,
		Dimensions: cfg.Embedding.Dimensions,
		TTL:        cfg.Embedding.CacheTTL(),
		Retry: embcache.RetryConfig{
			Attempts:   cfg.Embedding.RetryAttempts,
			BaseDelay:  cfg.Embedding.RetryBaseDelay(),
			Multiplier: 2,
		},
		MemorySize: cfg.Embedding.MemoryCacheSize,
	}

	if !cfg.Embedding.Enabled() {
		logger.Warn("Embedding provider not configured, semantic matching disabled")
		return embcache.New(nil, store, cacheCfg, metrics.EmbeddingCacheTotal, logger), nil
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:   cfg.Embedding.APIKey,
		BaseURL:  cfg.Embedding.BaseURL,
		Model:    cfg.Embedding.Model,
		Provider: providerName,
	}, cfg.Embedding.Dimensions)
	instrumented := provider.NewInstrumentedEmbedder(base, providerName, cfg.Embedding.Model, budget, logger)

	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)
	return embcache.New(instrumented, store, cacheCfg, metrics.EmbeddingCacheTotal, logger), base
}

// buildReranker returns nil when no LLM is configured; matching then starts at embeddings.
func buildReranker(
	cfg config.Config, budget provider.BudgetChecker, logger *zap.Logger,
) (*rerank.Reranker, healthuc.ProviderChecker) {
	if !cfg.LLM.Enabled() {
		logger.Warn("LLM provider not configured, AI reranking disabled")
		return nil, nil
	}

	base := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		Config: openaiTransport.Config{
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Model:    cfg.LLM.Model,
			Provider: providerName,
		},
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	completer := provider.NewInstrumentedCompleter(base, providerName, cfg.LLM.Model, budget, logger)

	logger.Info("Reranker created", zap.String("model", cfg.LLM.Model))
	return rerank.New(completer, cfg.LLM.MaxCandidates, logger), base
}
