package atlas

import (
	"github.com/sells-group/fiber-atlas/internal/model"
)

// Dataset names, used as store cache keys and in load error messages.
const (
	DatasetCounties         = "counties"
	DatasetCountyBoundaries = "county_boundaries"
	DatasetStates           = "states"
	DatasetStateBoundaries  = "state_boundaries"
)

// record is the wire shape of one attribute record in the counties and
// states datasets. Numeric fields are pointers so that absent fields
// stay absent instead of becoming zeros.
type record struct {
	GEOID            string           `json:"geoid"`
	Name             string           `json:"name"`
	Population       *float64         `json:"population"`
	HousingDensity   *float64         `json:"housing_density"`
	MedianIncome     *float64         `json:"median_income"`
	MedianRent       *float64         `json:"median_rent"`
	MedianHomeValue  *float64         `json:"median_home_value"`
	FiberPenetration *float64         `json:"fiber_penetration"`
	DemographicScore *float64         `json:"demographic_score"`
	Attractiveness   *float64         `json:"attractiveness"`
	PctBroadband     *float64         `json:"pct_broadband"`
	PctFiber         *float64         `json:"pct_fiber"`
	UrbanCore        bool             `json:"urban_core"`
	Operators        []model.Operator `json:"operators"`
}

// toRegion converts a wire record into the immutable domain type.
func (rec record) toRegion(g model.Granularity) *model.Region {
	metrics := make(map[model.Metric]float64)
	set := func(m model.Metric, v *float64) {
		if v != nil {
			metrics[m] = *v
		}
	}
	set(model.MetricPopulation, rec.Population)
	set(model.MetricHousingDensity, rec.HousingDensity)
	set(model.MetricMedianIncome, rec.MedianIncome)
	set(model.MetricMedianRent, rec.MedianRent)
	set(model.MetricMedianHomeValue, rec.MedianHomeValue)
	set(model.MetricFiberPenetration, rec.FiberPenetration)
	set(model.MetricDemographicScore, rec.DemographicScore)
	set(model.MetricAttractiveness, rec.Attractiveness)
	set(model.MetricPctBroadband, rec.PctBroadband)
	set(model.MetricPctFiber, rec.PctFiber)

	return &model.Region{
		GEOID:       rec.GEOID,
		Name:        rec.Name,
		Granularity: g,
		Metrics:     metrics,
		Operators:   rec.Operators,
		UrbanCore:   rec.UrbanCore,
	}
}

// validGEOID checks the identifier shape expected for the granularity.
func validGEOID(geoid string, g model.Granularity) bool {
	if g == model.GranularityNational {
		return model.ValidStateFIPS(geoid)
	}
	return model.ValidCountyFIPS(geoid)
}
