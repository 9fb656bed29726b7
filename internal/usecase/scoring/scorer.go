// Package scoring evaluates candidate listings against the structured filters a searcher set.
//
// Scoring is soft: no dimension removes a candidate. A bad dimension drags the
// mean down to roughly 0.2-0.3, and the candidate stays eligible because a strong
// semantic match can still make it the best available option.
package scoring

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmate/internal/domain/geo"
	"github.com/kailas-cloud/matchmate/internal/domain/listing"
	"github.com/kailas-cloud/matchmate/internal/domain/match"
)

// NeutralScore is the structured score when no dimension applies.
const NeutralScore = 1.0

// DefaultRadiusKm applies when a location is set without a usable radius
// and the listing declares none either.
const DefaultRadiusKm = 10.0

// Factor values.
const (
	budgetOutside   = 0.3
	budgetEdgeFloor = 0.7

	locationOutside = 0.2
	locationNear    = 1.0 // < 2 km
	locationClose   = 0.9 // < 5 km
	locationInside  = 0.8

	nearKm  = 2.0
	closeKm = 5.0

	bedroomsExact  = 1.0
	bedroomsOffBy1 = 0.8
	bedroomsOther  = 0.5

	bathroomsExact = 1.0
	bathroomsHalf  = 0.8
	bathroomsOther = 0.6

	furnishedMatch    = 1.0
	furnishedMismatch = 0.7
)

// Scorer computes structured scores.
type Scorer struct {
	defaultRadiusKm float64
	logger          *zap.Logger
}

// New creates a Scorer.
func New(logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{defaultRadiusKm: DefaultRadiusKm, logger: logger}
}

// WithDefaultRadius overrides the fallback search radius.
func (s *Scorer) WithDefaultRadius(km float64) *Scorer {
	if km > 0 {
		s.defaultRadiusKm = km
	}
	return s
}

// Score evaluates l against the flagged dimensions of f. Room-only dimensions
// are skipped unless both the searched type and the listing are rooms, and any
// dimension the listing has no data for is skipped too.
func (s *Scorer) Score(l *listing.Listing, f *match.Filters, target listing.Type) match.Breakdown {
	var factors []match.Factor
	room := target == listing.TypeRoom && l.IsRoom()
	e := f.Explicit

	if e.Budget && room && l.Price != nil {
		factors = append(factors, budgetFactor(*l.Price, f.BudgetMin, f.BudgetMax))
	}
	if e.Location || e.Radius {
		factors = append(factors, s.locationFactor(l, f))
	}
	if e.Bedrooms && room && l.Structured.Bedrooms != nil {
		factors = append(factors, bedroomsFactor(*l.Structured.Bedrooms, f.Bedrooms))
	}
	if e.Bathrooms && room && l.Structured.Bathrooms != nil {
		factors = append(factors, bathroomsFactor(*l.Structured.Bathrooms, f.Bathrooms))
	}
	if e.Furnished && room && l.Structured.Furnished != nil {
		factors = append(factors, furnishedFactor(*l.Structured.Furnished, f.Furnished))
	}

	score := NeutralScore
	if len(factors) > 0 {
		var sum float64
		for _, fc := range factors {
			sum += fc.Score
		}
		score = sum / float64(len(factors))
	}

	s.logger.Debug("structured_scored",
		zap.String("listing_id", l.ID),
		zap.Float64("score", score),
		zap.Int("active_factors", len(factors)),
		zap.Any("factors", factors),
	)

	return match.Breakdown{Score: score, Factors: factors}
}

// budgetFactor scores a price against [lo, hi]. hi <= 0 means no upper bound.
// Inside the range the score falls from 1.0 at the midpoint to 0.7 at the edges.
func budgetFactor(price, lo, hi float64) match.Factor {
	upper := hi
	if upper <= 0 {
		upper = math.Inf(1)
	}

	if price < lo || price > upper {
		return match.Factor{
			Dimension:   match.DimensionBudget,
			Score:       budgetOutside,
			Explanation: fmt.Sprintf("Outside budget ($%.0f)", price),
		}
	}

	score := 1.0
	rng := upper - lo
	if !math.IsInf(upper, 1) && rng > 0 {
		mid := lo + rng/2
		score = math.Max(budgetEdgeFloor, 1-math.Abs(price-mid)/rng)
	}
	return match.Factor{
		Dimension:   match.DimensionBudget,
		Score:       score,
		Explanation: fmt.Sprintf("Within budget ($%.0f)", price),
	}
}

func (s *Scorer) locationFactor(l *listing.Listing, f *match.Filters) match.Factor {
	radius := s.defaultRadiusKm
	switch {
	case f.Explicit.Radius && f.LocationRadiusKm > 0:
		radius = f.LocationRadiusKm
	case l.SearchRadiusKm > 0:
		radius = l.SearchRadiusKm
	}

	d := geo.DistanceKm(f.Location, l.Structured.Location)
	if d > radius {
		return match.Factor{
			Dimension:   match.DimensionLocation,
			Score:       locationOutside,
			Explanation: "Outside preferred area",
		}
	}

	score := locationInside
	switch {
	case d < nearKm:
		score = locationNear
	case d < closeKm:
		score = locationClose
	}
	return match.Factor{
		Dimension:   match.DimensionLocation,
		Score:       score,
		Explanation: fmt.Sprintf("%.1f km away", d),
	}
}

func bedroomsFactor(have, want int) match.Factor {
	diff := have - want
	if diff < 0 {
		diff = -diff
	}
	f := match.Factor{Dimension: match.DimensionBedrooms}
	switch diff {
	case 0:
		f.Score, f.Explanation = bedroomsExact, fmt.Sprintf("%d bedrooms as requested", have)
	case 1:
		f.Score, f.Explanation = bedroomsOffBy1, fmt.Sprintf("%d bedrooms (wanted %d)", have, want)
	default:
		f.Score, f.Explanation = bedroomsOther, fmt.Sprintf("%d bedrooms (wanted %d)", have, want)
	}
	return f
}

func bathroomsFactor(have, want float64) match.Factor {
	diff := math.Abs(have - want)
	f := match.Factor{Dimension: match.DimensionBathrooms}
	switch {
	case diff == 0:
		f.Score, f.Explanation = bathroomsExact, fmt.Sprintf("%g bathrooms as requested", have)
	case diff <= 0.5:
		f.Score, f.Explanation = bathroomsHalf, fmt.Sprintf("%g bathrooms (wanted %g)", have, want)
	default:
		f.Score, f.Explanation = bathroomsOther, fmt.Sprintf("%g bathrooms (wanted %g)", have, want)
	}
	return f
}

func furnishedFactor(have, want bool) match.Factor {
	if have == want {
		label := "Unfurnished as requested"
		if have {
			label = "Furnished as requested"
		}
		return match.Factor{Dimension: match.DimensionFurnished, Score: furnishedMatch, Explanation: label}
	}
	label := "Unfurnished"
	if have {
		label = "Furnished"
	}
	return match.Factor{
		Dimension:   match.DimensionFurnished,
		Score:       furnishedMismatch,
		Explanation: label + " (preference differs)",
	}
}
