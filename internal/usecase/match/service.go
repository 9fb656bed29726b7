// Package match runs the ranking pipeline: structured scoring, then LLM rerank,
// embedding similarity or keyword overlap, degrading to the next weaker stage
// whenever an upstream is missing or fails.
package match

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/matchmate/internal/domain"
	"github.com/kailas-cloud/matchmate/internal/domain/listing"
	dommatch "github.com/kailas-cloud/matchmate/internal/domain/match"
	"github.com/kailas-cloud/matchmate/internal/domain/similarity"
	logpkg "github.com/kailas-cloud/matchmate/internal/logger"
	"github.com/kailas-cloud/matchmate/internal/metrics"
)

// Blend weights.
const (
	semanticWeight   = 0.8
	keywordWeight    = 0.2
	relevanceWeight  = 0.9
	structuredWeight = 0.1
)

// Defaults.
const (
	DefaultMinStructuredScore = 0.1
	DefaultConcurrency        = 8
)

const filterExplanation = "Ranked by filter score"

// Config tunes the pipeline.
type Config struct {
	DefaultStrategy    dommatch.Strategy
	MinStructuredScore float64
	Concurrency        int
}

// Service ranks candidate listings for a search.
type Service struct {
	store    ListingStore
	scorer   Scorer
	embedder Embedder // nil or unconfigured: no embedding stage
	reranker Reranker // nil: no LLM stage
	cfg      Config
	logger   *zap.Logger
}

// New creates the pipeline. embedder and reranker may be nil.
func New(store ListingStore, scorer Scorer, embedder Embedder, reranker Reranker, cfg Config, logger *zap.Logger) *Service {
	if cfg.DefaultStrategy == "" || !cfg.DefaultStrategy.IsValid() {
		cfg.DefaultStrategy = dommatch.StrategyAI
	}
	if cfg.MinStructuredScore <= 0 {
		cfg.MinStructuredScore = DefaultMinStructuredScore
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		scorer:   scorer,
		embedder: embedder,
		reranker: reranker,
		cfg:      cfg,
		logger:   logger,
	}
}

// Match returns at most req.TopN() ranked results. An empty pool yields an empty slice.
// Only a failure to load candidates is returned as an error.
func (s *Service) Match(ctx context.Context, req *dommatch.Request) ([]dommatch.Result, error) {
	start := time.Now()

	pool, err := candidates(ctx, s.store, req.Target(), req.SearcherID())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCandidateStoreUnavailable, err)
	}
	metrics.MatchCandidates.Observe(float64(len(pool)))

	strategy := s.resolveStrategy(ctx, req.Strategy())
	if len(pool) == 0 {
		s.completed(ctx, req, strategy, "", 0, 0, start)
		return []dommatch.Result{}, nil
	}

	filters := req.Filters()
	scored := make([]dommatch.Result, len(pool))
	for i := range pool {
		b := s.scorer.Score(&pool[i], &filters, req.Target())
		scored[i] = dommatch.Result{
			Listing:         pool[i],
			StructuredScore: b.Score,
			Factors:         b.Factors,
		}
	}

	var results []dommatch.Result
	method := dommatch.MethodKeyword

	switch strategy {
	case dommatch.StrategyAI:
		results, method = s.aiRank(ctx, req, scored)
	case dommatch.StrategyEmbedding:
		var ok bool
		if results, ok = s.embeddingRank(ctx, req, scored); ok {
			method = dommatch.MethodEmbedding
		} else {
			results = s.keywordRank(req, scored)
		}
	default:
		results = s.keywordRank(req, scored)
	}

	s.completed(ctx, req, strategy, method, len(pool), len(results), start)
	return results, nil
}

// resolveStrategy picks the first stage whose collaborator is available.
func (s *Service) resolveStrategy(ctx context.Context, requested dommatch.Strategy) dommatch.Strategy {
	st := requested
	if st == "" {
		st = s.cfg.DefaultStrategy
	}
	if st == dommatch.StrategyAI && s.reranker == nil {
		s.fallback(ctx, string(dommatch.StrategyAI), string(dommatch.StrategyEmbedding), "llm_not_configured")
		st = dommatch.StrategyEmbedding
	}
	if st == dommatch.StrategyEmbedding && (s.embedder == nil || !s.embedder.Configured()) {
		s.fallback(ctx, string(dommatch.StrategyEmbedding), string(dommatch.StrategyKeyword), "embedder_not_configured")
		st = dommatch.StrategyKeyword
	}
	return st
}

func (s *Service) aiRank(ctx context.Context, req *dommatch.Request, scored []dommatch.Result) ([]dommatch.Result, dommatch.Method) {
	survivors := make([]dommatch.Result, 0, len(scored))
	for _, r := range scored {
		if r.StructuredScore >= s.cfg.MinStructuredScore {
			survivors = append(survivors, r)
		}
	}
	sortStable(survivors, func(r *dommatch.Result) float64 { return r.StructuredScore })

	if len(survivors) <= req.TopN() {
		metrics.RerankOutcomesTotal.WithLabelValues("skipped").Inc()
		return filterRanked(survivors, req.TopN()), dommatch.MethodFilter
	}

	ranked, err := s.reranker.Rerank(ctx, searchText(req), survivors, req.TopN())
	if err != nil {
		outcome, reason := "error", "rerank_error"
		if errors.Is(err, domain.ErrRerankUnparsable) {
			outcome, reason = "unparsable", "rerank_unparsable"
		}
		metrics.RerankOutcomesTotal.WithLabelValues(outcome).Inc()
		s.fallback(ctx, string(dommatch.StrategyAI), string(dommatch.MethodFilter), reason)
		s.log(ctx).Warn("LLM rerank failed, ranking by filter score",
			zap.Int("survivors", len(survivors)),
			zap.Error(err),
		)
		return filterRanked(survivors, req.TopN()), dommatch.MethodFilter
	}

	metrics.RerankOutcomesTotal.WithLabelValues("ok").Inc()
	return ranked, dommatch.MethodAI
}

// filterRanked tags results already sorted by structured score.
func filterRanked(sorted []dommatch.Result, topN int) []dommatch.Result {
	out := sorted[:min(topN, len(sorted))]
	for i := range out {
		out[i].CombinedScore = out[i].StructuredScore
		out[i].Method = dommatch.MethodFilter
		out[i].Explanation = filterExplanation
	}
	return out
}

// embeddingRank reports false when the searcher embedding is unavailable.
func (s *Service) embeddingRank(
	ctx context.Context, req *dommatch.Request, scored []dommatch.Result,
) ([]dommatch.Result, bool) {
	query, err := s.embedder.Embed(ctx, searchText(req))
	if err != nil || domain.IsZeroVector(query.Embedding) {
		s.fallback(ctx, string(dommatch.StrategyEmbedding), string(dommatch.StrategyKeyword), "searcher_embedding_unavailable")
		return nil, false
	}

	vectors := s.candidateVectors(ctx, scored)

	log := s.log(ctx)
	keywords := req.Keywords()
	filtersActive := req.Filters().Active()
	for i := range scored {
		r := &scored[i]
		postWords := listingKeywords(&r.Listing)
		kw := similarity.Jaccard(keywords, postWords)

		var sem float64
		proxy := domain.IsZeroVector(vectors[i])
		if proxy {
			sem = similarity.SemanticWordOverlap(keywords, postWords)
		} else {
			sem = similarity.Clamp01(similarity.Cosine(query.Embedding, vectors[i]))
		}

		blend := semanticWeight*sem + keywordWeight*kw
		r.SemanticScore = sem
		r.KeywordScore = kw
		r.CombinedScore = blend
		if filtersActive {
			r.CombinedScore = relevanceWeight*blend + structuredWeight*r.StructuredScore
		}
		r.Method = dommatch.MethodEmbedding
		r.Explanation = explain(fmt.Sprintf("%.0f%% semantic match", sem*100), r.Factors)

		log.Debug("semantic_scored",
			zap.String("listing_id", r.Listing.ID),
			zap.Float64("semantic", sem),
			zap.Bool("word_overlap_proxy", proxy),
			zap.Float64("keyword", kw),
			zap.Float64("structured", r.StructuredScore),
			zap.Float64("combined", r.CombinedScore),
		)
	}

	sortStable(scored, func(r *dommatch.Result) float64 { return r.CombinedScore })
	return scored[:min(req.TopN(), len(scored))], true
}

// candidateVectors reuses stored embeddings and computes stale or missing ones in parallel.
// Entries stay zero when the embedding could not be produced.
func (s *Service) candidateVectors(ctx context.Context, scored []dommatch.Result) [][]float32 {
	dim := s.embedder.Dimensions()
	vectors := make([][]float32, len(scored))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range scored {
		l := &scored[i].Listing
		if l.HasUsableEmbedding(dim) {
			vectors[i] = l.Embedding
			continue
		}
		g.Go(func() error {
			res, err := s.embedder.Embed(gctx, l.EmbeddingText())
			if err != nil {
				s.log(ctx).Warn("Candidate embedding failed", zap.String("listing_id", l.ID), zap.Error(err))
				return nil
			}
			vectors[i] = res.Embedding
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return vectors
}

func (s *Service) keywordRank(req *dommatch.Request, scored []dommatch.Result) []dommatch.Result {
	keywords := req.Keywords()
	filtersActive := req.Filters().Active()
	for i := range scored {
		r := &scored[i]
		kw := similarity.Jaccard(keywords, listingKeywords(&r.Listing))
		r.KeywordScore = kw
		r.CombinedScore = kw
		if filtersActive {
			r.CombinedScore = relevanceWeight*kw + structuredWeight*r.StructuredScore
		}
		r.Method = dommatch.MethodKeyword
		r.Explanation = explain(fmt.Sprintf("%.0f%% keyword overlap", kw*100), r.Factors)
	}

	sortStable(scored, func(r *dommatch.Result) float64 { return r.CombinedScore })
	return scored[:min(req.TopN(), len(scored))]
}

// fallback records a degradation; to is a strategy or, for a failed rerank, the filter method.
func (s *Service) fallback(ctx context.Context, from, to, reason string) {
	metrics.MatchFallbacksTotal.WithLabelValues(from, to, reason).Inc()
	s.log(ctx).Warn("Match strategy degraded",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("reason", reason),
	)
}

func (s *Service) completed(
	ctx context.Context, req *dommatch.Request, strategy dommatch.Strategy, method dommatch.Method,
	pool, results int, start time.Time,
) {
	duration := time.Since(start)
	if method != "" {
		metrics.MatchRequestsTotal.WithLabelValues(string(strategy), string(method)).Inc()
		metrics.MatchDuration.WithLabelValues(string(method)).Observe(duration.Seconds())
	}
	s.log(ctx).Info("match_completed",
		zap.String("searcher_id", req.SearcherID()),
		zap.String("target", string(req.Target())),
		zap.String("strategy", string(strategy)),
		zap.String("method", string(method)),
		zap.Int("candidates", pool),
		zap.Int("results", results),
		zap.Duration("duration", duration),
	)
}

// log prefers the request-scoped logger so entries carry its request_id.
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContextOr(ctx, s.logger)
}

// sortStable orders by key descending, keeping input order for ties.
func sortStable(rs []dommatch.Result, key func(*dommatch.Result) float64) {
	sort.SliceStable(rs, func(i, j int) bool { return key(&rs[i]) > key(&rs[j]) })
}

// searchText is what gets embedded or shown to the LLM for the searcher.
func searchText(req *dommatch.Request) string {
	if t := req.FreeText(); t != "" {
		return t
	}
	return strings.Join(req.Keywords(), " ")
}

func listingKeywords(l *listing.Listing) []string {
	if len(l.Keywords) > 0 {
		return l.Keywords
	}
	return similarity.ExtractKeywords(l.EmbeddingText())
}

func explain(lead string, factors []dommatch.Factor) string {
	parts := make([]string, 0, len(factors)+1)
	parts = append(parts, lead)
	for _, f := range factors {
		parts = append(parts, f.Explanation)
	}
	return strings.Join(parts, "; ")
}
