// Package filter holds the pure predicates deciding region visibility.
// Map shading and table row visibility share these functions, so the
// two surfaces can never drift apart.
package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/fiber-atlas/internal/model"
)

// Thresholds are the active filter settings. The zero value filters
// nothing except regions with missing data.
type Thresholds struct {
	MinPopulation    float64 `json:"min_population"`
	MinDensity       float64 `json:"min_density"`
	ExcludeUrbanCore bool    `json:"exclude_urban_core"`
}

var folder = cases.Fold()

// Excluded reports whether the region is filtered out of the active
// view. A region is excluded when the urban-core exclusion applies,
// or its population or housing density is below the configured floor.
// Regions missing either metric are always excluded (fail-closed).
// Pure and deterministic: same region and thresholds, same answer.
func Excluded(r *model.Region, t Thresholds) bool {
	if r == nil {
		return true
	}
	if t.ExcludeUrbanCore && r.UrbanCore {
		return true
	}

	pop, ok := r.Metric(model.MetricPopulation)
	if !ok {
		return true
	}
	density, ok := r.Metric(model.MetricHousingDensity)
	if !ok {
		return true
	}

	return pop < t.MinPopulation || density < t.MinDensity
}

// MatchesSearch reports whether the region name contains the query as a
// case-insensitive substring. An empty query matches everything.
func MatchesSearch(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(folder.String(name), folder.String(query))
}

// Hidden composes threshold filtering and search: a region is hidden
// when either excludes it.
func Hidden(r *model.Region, t Thresholds, query string) bool {
	if Excluded(r, t) {
		return true
	}
	return !MatchesSearch(r.Name, query)
}
