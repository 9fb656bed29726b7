package match

import (
	"fmt"

	"github.com/kailas-cloud/matchmate/internal/domain/geo"
)

// Explicit flags which filter dimensions the searcher actually set.
// An unset dimension is never scored, whatever its zero value looks like.
type Explicit struct {
	Budget    bool `json:"budget"`
	Location  bool `json:"location"`
	Radius    bool `json:"radius"`
	Bedrooms  bool `json:"bedrooms"`
	Bathrooms bool `json:"bathrooms"`
	Furnished bool `json:"furnished"`
}

// Any reports whether at least one dimension is flagged.
func (e Explicit) Any() bool {
	return e.Budget || e.Location || e.Radius || e.Bedrooms || e.Bathrooms || e.Furnished
}

// Filters are the searcher's structured preferences.
type Filters struct {
	BudgetMin        float64    `json:"budget_min"`
	BudgetMax        float64    `json:"budget_max"`
	Location         *geo.Point `json:"location,omitempty"`
	LocationRadiusKm float64    `json:"location_radius_km"`
	Bedrooms         int        `json:"bedrooms"`
	Bathrooms        float64    `json:"bathrooms"`
	Furnished        bool       `json:"furnished"`
	Explicit         Explicit   `json:"explicit_filters"`
}

// Active reports whether any filter dimension takes part in scoring.
func (f Filters) Active() bool { return f.Explicit.Any() }

// Validate rejects contradictory values on flagged dimensions only.
func (f *Filters) Validate() error {
	e := f.Explicit
	if e.Budget {
		if f.BudgetMin < 0 || f.BudgetMax < 0 {
			return fmt.Errorf("budget bounds must be non-negative")
		}
		if f.BudgetMax > 0 && f.BudgetMin > f.BudgetMax {
			return fmt.Errorf("budget_min %.2f exceeds budget_max %.2f", f.BudgetMin, f.BudgetMax)
		}
	}
	if e.Location && f.Location != nil && !f.Location.Valid() {
		return fmt.Errorf("invalid location coordinates")
	}
	if e.Radius && f.LocationRadiusKm < 0 {
		return fmt.Errorf("location_radius_km must be non-negative")
	}
	if e.Bedrooms && f.Bedrooms < 0 {
		return fmt.Errorf("bedrooms must be non-negative")
	}
	if e.Bathrooms && f.Bathrooms < 0 {
		return fmt.Errorf("bathrooms must be non-negative")
	}
	return nil
}
