package model

import "sort"

// Operator is a service provider active in a region, ranked by how many
// homes its plant passes.
type Operator struct {
	Name     string `json:"name"`
	Passings int64  `json:"passings"`
}

// Region is an immutable attribute record for a geographic unit: a state
// at national granularity or a county at regional granularity. Records
// are owned by the atlas repository and never mutated after load.
type Region struct {
	GEOID       string             `json:"geoid"`
	Name        string             `json:"name"`
	Granularity Granularity        `json:"granularity"`
	Metrics     map[Metric]float64 `json:"metrics"`
	Operators   []Operator         `json:"operators,omitempty"`
	UrbanCore   bool               `json:"urban_core"`
}

// Metric returns the named metric value. The second return is false when
// the dataset did not carry the field for this region.
func (r *Region) Metric(m Metric) (float64, bool) {
	v, ok := r.Metrics[m]
	return v, ok
}

// TopOperators returns up to n operators ordered by passings descending.
// The receiver's slice is not modified.
func (r *Region) TopOperators(n int) []Operator {
	ops := make([]Operator, len(r.Operators))
	copy(ops, r.Operators)
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Passings > ops[j].Passings
	})
	if n < len(ops) {
		ops = ops[:n]
	}
	return ops
}

// ValidStateFIPS reports whether s is a 2-digit state FIPS code.
func ValidStateFIPS(s string) bool {
	return len(s) == 2 && allDigits(s)
}

// ValidCountyFIPS reports whether s is a 5-digit county FIPS code.
func ValidCountyFIPS(s string) bool {
	return len(s) == 5 && allDigits(s)
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
