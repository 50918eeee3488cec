package viewstate

import (
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fiber-atlas/internal/filter"
	"github.com/sells-group/fiber-atlas/internal/format"
	"github.com/sells-group/fiber-atlas/internal/model"
)

// SortKey identifies a sortable table column.
type SortKey string

const (
	SortName           SortKey = "name"
	SortPopulation     SortKey = "population"
	SortDensity        SortKey = "density"
	SortIncome         SortKey = "income"
	SortPenetration    SortKey = "penetration"
	SortDemographic    SortKey = "demographic"
	SortAttractiveness SortKey = "attractiveness"
)

// ParseSortKey validates a sort key received over the wire.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case SortName, SortPopulation, SortDensity, SortIncome,
		SortPenetration, SortDemographic, SortAttractiveness:
		return k, nil
	}
	return "", eris.Errorf("viewstate: unknown sort key %q", s)
}

// Metric returns the metric a numeric sort key orders by. SortName has
// no metric; ok is false.
func (k SortKey) Metric() (model.Metric, bool) {
	switch k {
	case SortPopulation:
		return model.MetricPopulation, true
	case SortDensity:
		return model.MetricHousingDensity, true
	case SortIncome:
		return model.MetricMedianIncome, true
	case SortPenetration:
		return model.MetricFiberPenetration, true
	case SortDemographic:
		return model.MetricDemographicScore, true
	case SortAttractiveness:
		return model.MetricAttractiveness, true
	}
	return "", false
}

// Sort is the active table ordering.
type Sort struct {
	Key  SortKey `json:"key"`
	Desc bool    `json:"desc"`
}

// TableRow is one region rendered for the table. Rows excluded by
// filters or missed by the search are returned with Hidden set rather
// than dropped, so row identity is stable across filter changes.
type TableRow struct {
	GEOID          string `json:"geoid"`
	Name           string `json:"name"`
	Population     string `json:"population"`
	Density        string `json:"density"`
	Income         string `json:"income"`
	Penetration    string `json:"penetration"`
	Demographic    string `json:"demographic"`
	Attractiveness string `json:"attractiveness"`
	FilteredOut    bool   `json:"filtered_out"`
	SearchMiss     bool   `json:"search_miss"`
	Hidden         bool   `json:"hidden"`
}

// TableRows derives the table for the current granularity: every region
// as one row, sorted by the active key and direction, with visibility
// flags from the same predicates the map uses. Regions missing the sort
// metric order after all regions that have it, in either direction.
func (c *Coordinator) TableRows() []TableRow {
	c.mu.Lock()
	g := c.st.Granularity
	filters := c.st.Filters
	search := c.st.Search
	key := c.st.Sort.Key
	desc := c.st.Sort.Desc
	c.mu.Unlock()

	regions := c.atlas.Regions(g)

	sort.SliceStable(regions, func(i, j int) bool {
		return rowLess(regions[i], regions[j], key, desc)
	})

	rows := make([]TableRow, 0, len(regions))
	for _, reg := range regions {
		excluded := filter.Excluded(reg, filters)
		miss := !filter.MatchesSearch(reg.Name, search)
		rows = append(rows, TableRow{
			GEOID:          reg.GEOID,
			Name:           reg.Name,
			Population:     format.Count(metricOrNaN(reg, model.MetricPopulation)),
			Density:        format.Ratio(metricOrNaN(reg, model.MetricHousingDensity)),
			Income:         format.Currency(metricOrNaN(reg, model.MetricMedianIncome)),
			Penetration:    format.Percent(metricOrNaN(reg, model.MetricFiberPenetration), 1),
			Demographic:    format.Score(metricOrNaN(reg, model.MetricDemographicScore)),
			Attractiveness: format.Score(metricOrNaN(reg, model.MetricAttractiveness)),
			FilteredOut:    excluded,
			SearchMiss:     miss,
			Hidden:         excluded || miss,
		})
	}
	return rows
}

func rowLess(a, b *model.Region, key SortKey, desc bool) bool {
	if key == SortName {
		if desc {
			return a.Name > b.Name
		}
		return a.Name < b.Name
	}

	metric, _ := key.Metric()
	av, aok := a.Metric(metric)
	bv, bok := b.Metric(metric)
	if aok != bok {
		return aok // present before missing, regardless of direction
	}
	if !aok {
		return false
	}
	if desc {
		return av > bv
	}
	return av < bv
}

func metricOrNaN(r *model.Region, m model.Metric) float64 {
	if v, ok := r.Metric(m); ok {
		return v
	}
	return nan()
}

func nan() float64 { return math.NaN() }
