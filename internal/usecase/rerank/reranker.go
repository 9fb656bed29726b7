// Package rerank orders candidate listings with an LLM.
//
// The model only returns an ordering. Each rank gets a synthetic score
// (1.0, 0.85, 0.70, ... floor 0.1) so results stay sortable next to other methods.
package rerank

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmate/internal/domain"
	"github.com/kailas-cloud/matchmate/internal/domain/match"
)

// DefaultMaxCandidates caps how many listings go into one prompt.
const DefaultMaxCandidates = 20

const (
	rankingMarker = "RANKING:"
	rankStep      = 0.15
	rankFloor     = 0.1
)

// rankLine matches "1. ID: <id> - <why>" and tolerates "1)", bold markers and a missing reason.
var rankLine = regexp.MustCompile(`(?i)^\s*\d+\s*[.)]\s*\**\s*ID\s*:\s*\**\s*(\S+?)\**(?:\s+[-–]\s*(.*))?\s*$`)

// Reranker asks the completion provider to order candidates.
type Reranker struct {
	completer     domain.Completer
	maxCandidates int
	logger        *zap.Logger
}

// New creates a Reranker. maxCandidates <= 0 uses DefaultMaxCandidates.
func New(completer domain.Completer, maxCandidates int, logger *zap.Logger) *Reranker {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reranker{completer: completer, maxCandidates: maxCandidates, logger: logger}
}

// Rerank returns up to topN candidates in the model's order with rank scores.
// When candidates already fit in topN they are returned unchanged without a model call.
// The prompt holds max(maxCandidates, topN) candidates; the rest are not shown, so callers
// pass them best-first.
// Returns domain.ErrRerankUnparsable when no line of the answer could be used.
func (r *Reranker) Rerank(
	ctx context.Context, searchText string, candidates []match.Result, topN int,
) ([]match.Result, error) {
	if len(candidates) <= topN {
		return candidates, nil
	}
	if r.completer == nil {
		return nil, domain.ErrProviderNotConfigured
	}

	pool := candidates
	if limit := max(r.maxCandidates, topN); len(pool) > limit {
		pool = pool[:limit]
	}
	want := min(topN, len(pool))

	res, err := r.completer.Complete(ctx, buildSystemPrompt(want), buildUserPrompt(searchText, pool))
	if err != nil {
		return nil, fmt.Errorf("rerank completion: %w", err)
	}

	ranked := r.parse(res.Content, pool, want)
	if len(ranked) == 0 {
		return nil, domain.ErrRerankUnparsable
	}
	return ranked, nil
}

func (r *Reranker) parse(content string, pool []match.Result, topN int) []match.Result {
	byID := make(map[string]int, len(pool))
	for i := range pool {
		byID[pool[i].Listing.ID] = i
	}

	idx := strings.Index(content, rankingMarker)
	if idx < 0 {
		r.logger.Warn("Rerank response has no ranking marker", zap.Int("length", len(content)))
		return nil
	}

	var (
		out     []match.Result
		seen    = make(map[string]bool, topN)
		unknown int
		dupes   int
	)
	for _, line := range strings.Split(content[idx+len(rankingMarker):], "\n") {
		if len(out) >= topN {
			break
		}
		m := rankLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id := strings.Trim(m[1], "*[]()<>\"'`,;:")
		i, ok := byID[id]
		if !ok {
			unknown++
			r.logger.Warn("Rerank returned unknown id", zap.String("id", id))
			continue
		}
		if seen[id] {
			dupes++
			continue
		}
		seen[id] = true

		res := pool[i]
		res.CombinedScore = RankScore(len(out))
		res.SemanticScore = 0
		res.Method = match.MethodAI
		if why := strings.TrimSpace(m[2]); why != "" {
			res.Explanation = why
		} else {
			res.Explanation = "Ranked by AI"
		}
		out = append(out, res)
	}

	r.logger.Debug("rerank_parsed",
		zap.Int("parsed", len(out)),
		zap.Int("unknown_ids", unknown),
		zap.Int("duplicates", dupes),
		zap.Int("pool", len(pool)),
	)
	return out
}

// RankScore is the synthetic score of a 0-based rank position.
func RankScore(rank int) float64 {
	return max(rankFloor, 1.0-rankStep*float64(rank))
}
