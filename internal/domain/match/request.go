package match

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/matchmate/internal/domain/listing"
	"github.com/kailas-cloud/matchmate/internal/domain/similarity"
)

// Search parameter limits.
const (
	// MaxFreeTextLength is the maximum allowed free-text description length.
	MaxFreeTextLength = 4096
	DefaultTopN       = 5
	MaxTopN           = 50
)

// Request is a validated search.
type Request struct {
	searcherID string
	target     listing.Type
	freeText   string
	keywords   []string
	filters    Filters
	topN       int
	strategy   Strategy
}

// NewRequest validates and normalizes search parameters.
// Defaults: topN=5. An empty strategy defers to the service default.
func NewRequest(
	searcherID string,
	target listing.Type,
	freeText string,
	keywords []string,
	filters Filters,
	topN int,
	strategy Strategy,
) (Request, error) {
	if !target.IsValid() {
		return Request{}, fmt.Errorf("invalid listing type %q", target)
	}
	freeText = strings.TrimSpace(freeText)
	if len(freeText) > MaxFreeTextLength {
		return Request{}, fmt.Errorf("description too long (max %d chars)", MaxFreeTextLength)
	}
	keywords = similarity.NormalizeKeywords(keywords)
	if freeText == "" && len(keywords) == 0 && !filters.Active() {
		return Request{}, fmt.Errorf("description, keywords or at least one filter is required")
	}
	if err := filters.Validate(); err != nil {
		return Request{}, err
	}
	if strategy != "" && !strategy.IsValid() {
		return Request{}, fmt.Errorf("invalid strategy %q", strategy)
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	if topN > MaxTopN {
		topN = MaxTopN
	}

	return Request{
		searcherID: searcherID,
		target:     target,
		freeText:   freeText,
		keywords:   keywords,
		filters:    filters,
		topN:       topN,
		strategy:   strategy,
	}, nil
}

// SearcherID returns the id whose own listings are excluded.
func (r *Request) SearcherID() string { return r.searcherID }

// Target returns the listing type searched for.
func (r *Request) Target() listing.Type { return r.target }

// FreeText returns the searcher's description.
func (r *Request) FreeText() string { return r.freeText }

// Keywords returns explicit keywords, or the ones extracted from the free text.
func (r *Request) Keywords() []string {
	if len(r.keywords) > 0 {
		return r.keywords
	}
	return similarity.ExtractKeywords(r.freeText)
}

// Filters returns the structured preferences.
func (r *Request) Filters() Filters { return r.filters }

// TopN returns the maximum number of results.
func (r *Request) TopN() int { return r.topN }

// Strategy returns the requested strategy, empty for the service default.
func (r *Request) Strategy() Strategy { return r.strategy }
