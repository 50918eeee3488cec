// Package model defines the core domain types for the fiber atlas:
// regions, operators, metrics, and the closed enumerations driving
// map layers and view granularity.
package model

import "github.com/rotisserie/eris"

// Metric identifies a named numeric field on a region record.
type Metric string

const (
	MetricPopulation       Metric = "population"
	MetricHousingDensity   Metric = "housing_density"
	MetricMedianIncome     Metric = "median_income"
	MetricMedianRent       Metric = "median_rent"
	MetricMedianHomeValue  Metric = "median_home_value"
	MetricFiberPenetration Metric = "fiber_penetration"
	MetricDemographicScore Metric = "demographic_score"
	MetricAttractiveness   Metric = "attractiveness"
	MetricPctBroadband     Metric = "pct_broadband"
	MetricPctFiber         Metric = "pct_fiber"
)

// AllMetrics lists every known metric in stable order.
var AllMetrics = []Metric{
	MetricPopulation,
	MetricHousingDensity,
	MetricMedianIncome,
	MetricMedianRent,
	MetricMedianHomeValue,
	MetricFiberPenetration,
	MetricDemographicScore,
	MetricAttractiveness,
	MetricPctBroadband,
	MetricPctFiber,
}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	for _, k := range AllMetrics {
		if m == k {
			return true
		}
	}
	return false
}

// Layer is the metric layer driving region coloring. It is a closed
// enumeration: every switch over Layer must handle all three values.
type Layer string

const (
	LayerPenetration    Layer = "penetration"
	LayerDemographic    Layer = "demographic"
	LayerAttractiveness Layer = "attractiveness"
)

// ParseLayer converts a string to a Layer, erroring on unknown values.
func ParseLayer(s string) (Layer, error) {
	switch Layer(s) {
	case LayerPenetration, LayerDemographic, LayerAttractiveness:
		return Layer(s), nil
	default:
		return "", eris.Errorf("model: unknown layer %q", s)
	}
}

// Metric returns the region metric that drives coloring for the layer.
func (l Layer) Metric() Metric {
	switch l {
	case LayerPenetration:
		return MetricFiberPenetration
	case LayerDemographic:
		return MetricDemographicScore
	case LayerAttractiveness:
		return MetricAttractiveness
	default:
		// Unreachable for values produced by ParseLayer.
		return MetricFiberPenetration
	}
}

// Granularity is which of the two map views is active.
type Granularity string

const (
	GranularityNational Granularity = "national"
	GranularityRegional Granularity = "regional"
)

// ParseGranularity converts a string to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityNational, GranularityRegional:
		return Granularity(s), nil
	default:
		return "", eris.Errorf("model: unknown granularity %q", s)
	}
}
