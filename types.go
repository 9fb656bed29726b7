package matchmate

import (
	"github.com/kailas-cloud/matchmate/internal/domain"
	"github.com/kailas-cloud/matchmate/internal/domain/geo"
	"github.com/kailas-cloud/matchmate/internal/domain/listing"
	dommatch "github.com/kailas-cloud/matchmate/internal/domain/match"
)

// Domain types exposed to SDK users.
type (
	Listing          = listing.Listing
	ListingType      = listing.Type
	Structured       = listing.Structured
	Point            = geo.Point
	Filters          = dommatch.Filters
	ExplicitFilters  = dommatch.Explicit
	Result           = dommatch.Result
	Factor           = dommatch.Factor
	Strategy         = dommatch.Strategy
	Method           = dommatch.Method
	Embedder         = domain.Embedder
	EmbeddingResult  = domain.EmbeddingResult
	Completer        = domain.Completer
	CompletionResult = domain.CompletionResult
)

// Listing types.
const (
	Room     = listing.TypeRoom
	Roommate = listing.TypeRoommate
)

// Strategies.
const (
	StrategyAI        = dommatch.StrategyAI
	StrategyEmbedding = dommatch.StrategyEmbedding
	StrategyKeyword   = dommatch.StrategyKeyword
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound                  = domain.ErrNotFound
	ErrInvalidRequest            = domain.ErrInvalidRequest
	ErrQuotaExceeded             = domain.ErrQuotaExceeded
	ErrCandidateStoreUnavailable = domain.ErrCandidateStoreUnavailable
)

// Query describes one search.
type Query struct {
	SearcherID  string // listings owned by this id are excluded
	Target      ListingType
	Description string
	Keywords    []string
	Filters     Filters
	TopN        int // 0 means the default of 5
	Strategy    Strategy
}
