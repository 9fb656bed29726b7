package chi

import (
	"time"

	domlisting "github.com/kailas-cloud/matchmate/internal/domain/listing"
	dommatch "github.com/kailas-cloud/matchmate/internal/domain/match"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeListingNotFound  ErrorCode = "listing_not_found"
	ErrorCodeListingExists    ErrorCode = "listing_already_exists"
	ErrorCodeQuotaExceeded    ErrorCode = "quota_exceeded"
	ErrorCodeProviderError    ErrorCode = "provider_error"
	ErrorCodeStoreUnavailable ErrorCode = "store_unavailable"
	ErrorCodeInternalError    ErrorCode = "internal_error"
	ErrorCodeMethodNotAllowed ErrorCode = "method_not_allowed"
	ErrorCodeRouteNotFound    ErrorCode = "route_not_found"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// MatchRequest is the body of POST /v1/matches.
type MatchRequest struct {
	SearcherID  string           `json:"searcher_id"`
	ListingType string           `json:"listing_type"`
	Description string           `json:"description"`
	Keywords    []string         `json:"keywords,omitempty"`
	Filters     dommatch.Filters `json:"filters"`
	TopN        *int             `json:"top_n,omitempty"`
	Strategy    string           `json:"strategy,omitempty"`
}

// MatchResultItem is one ranked listing.
type MatchResultItem struct {
	Listing         ListingResponse   `json:"listing"`
	StructuredScore float64           `json:"structured_score"`
	SemanticScore   float64           `json:"semantic_score"`
	KeywordScore    float64           `json:"keyword_score"`
	CombinedScore   float64           `json:"combined_score"`
	Factors         []dommatch.Factor `json:"factors"`
	Explanation     string            `json:"explanation"`
	Method          dommatch.Method   `json:"method"`
}

// MatchResponse is the body returned by POST /v1/matches.
type MatchResponse struct {
	Items []MatchResultItem `json:"items"`
	Total int               `json:"total"`
}

// ListingRequest is the body of POST /v1/listings and PUT /v1/listings/{id}.
type ListingRequest struct {
	UserID         string                `json:"user_id"`
	Type           string                `json:"type"`
	Title          string                `json:"title,omitempty"`
	Description    string                `json:"description"`
	Address        string                `json:"address,omitempty"`
	Images         []string              `json:"images,omitempty"`
	Keywords       []string              `json:"keywords,omitempty"`
	Price          *float64              `json:"price,omitempty"`
	Structured     domlisting.Structured `json:"structured"`
	SearchRadiusKm float64               `json:"search_radius_km,omitempty"`
}

// ListingResponse is a listing as exposed over HTTP. Embeddings are never returned.
type ListingResponse struct {
	ID             string                `json:"id"`
	UserID         string                `json:"user_id"`
	Type           domlisting.Type       `json:"type"`
	Title          string                `json:"title,omitempty"`
	Description    string                `json:"description"`
	Address        string                `json:"address,omitempty"`
	Images         []string              `json:"images,omitempty"`
	Keywords       []string              `json:"keywords,omitempty"`
	Price          *float64              `json:"price,omitempty"`
	Structured     domlisting.Structured `json:"structured"`
	SearchRadiusKm float64               `json:"search_radius_km,omitempty"`
	Closed         bool                  `json:"closed"`
	Embedded       bool                  `json:"embedded"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

func listingFromRequest(req *ListingRequest) (domlisting.Listing, error) {
	t, err := domlisting.ParseType(req.Type)
	if err != nil {
		return domlisting.Listing{}, err
	}
	return domlisting.Listing{
		UserID:         req.UserID,
		Type:           t,
		Title:          req.Title,
		Description:    req.Description,
		Address:        req.Address,
		Images:         req.Images,
		Keywords:       req.Keywords,
		Price:          req.Price,
		Structured:     req.Structured,
		SearchRadiusKm: req.SearchRadiusKm,
	}, nil
}

func listingToResponse(l *domlisting.Listing) ListingResponse {
	return ListingResponse{
		ID:             l.ID,
		UserID:         l.UserID,
		Type:           l.Type,
		Title:          l.Title,
		Description:    l.Description,
		Address:        l.Address,
		Images:         l.Images,
		Keywords:       l.Keywords,
		Price:          l.Price,
		Structured:     l.Structured,
		SearchRadiusKm: l.SearchRadiusKm,
		Closed:         l.Closed,
		Embedded:       len(l.Embedding) > 0,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func matchResultToResponse(r *dommatch.Result) MatchResultItem {
	factors := r.Factors
	if factors == nil {
		factors = []dommatch.Factor{}
	}
	return MatchResultItem{
		Listing:         listingToResponse(&r.Listing),
		StructuredScore: r.StructuredScore,
		SemanticScore:   r.SemanticScore,
		KeywordScore:    r.KeywordScore,
		CombinedScore:   r.CombinedScore,
		Factors:         factors,
		Explanation:     r.Explanation,
		Method:          r.Method,
	}
}
