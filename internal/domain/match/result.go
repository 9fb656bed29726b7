package match

import "github.com/kailas-cloud/matchmate/internal/domain/listing"

// Dimension names a structured filter dimension.
type Dimension string

// Structured filter dimensions.
const (
	DimensionBudget    Dimension = "budget"
	DimensionLocation  Dimension = "location"
	DimensionBedrooms  Dimension = "bedrooms"
	DimensionBathrooms Dimension = "bathrooms"
	DimensionFurnished Dimension = "furnished"
)

// Factor is one active dimension's score with a human-readable reason.
type Factor struct {
	Dimension   Dimension `json:"dimension"`
	Score       float64   `json:"score"`
	Explanation string    `json:"explanation"`
}

// Breakdown is the structured score of one candidate.
type Breakdown struct {
	Score   float64
	Factors []Factor
}

// Result is a scored projection of a listing, built per search and never stored.
type Result struct {
	Listing         listing.Listing
	StructuredScore float64
	SemanticScore   float64
	KeywordScore    float64
	CombinedScore   float64
	Factors         []Factor
	Explanation     string
	Method          Method
}
