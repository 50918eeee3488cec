// Package colorscale maps normalized metric values to bucketed display
// colors using ordered threshold ladders. Ladders are static domain
// configuration validated at construction, not derived at runtime.
package colorscale

import (
	"math"

	"github.com/rotisserie/eris"
)

// Entry is one bucket of a scale: values at or below Upper take Color.
type Entry struct {
	Upper float64 `yaml:"upper" json:"upper"`
	Color string  `yaml:"color" json:"color"`
	Label string  `yaml:"label" json:"label"`
}

// LegendEntry is the display projection of a bucket.
type LegendEntry struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

// Scale is an ordered sequence of buckets with strictly increasing
// upper bounds. The last bucket acts as a catch-all: values beyond it
// clamp to its color rather than erroring. Immutable after construction.
type Scale struct {
	name    string
	neutral string
	entries []Entry
}

// New builds a Scale, validating that at least one entry exists and that
// upper bounds are strictly increasing.
func New(name, neutral string, entries []Entry) (*Scale, error) {
	if name == "" {
		return nil, eris.New("colorscale: empty scale name")
	}
	if neutral == "" {
		return nil, eris.Errorf("colorscale: scale %q has no neutral color", name)
	}
	if len(entries) == 0 {
		return nil, eris.Errorf("colorscale: scale %q has no entries", name)
	}
	for i, e := range entries {
		if !finite(e.Upper) {
			return nil, eris.Errorf("colorscale: scale %q entry %d has non-finite threshold", name, i)
		}
		if e.Color == "" {
			return nil, eris.Errorf("colorscale: scale %q entry %d has no color", name, i)
		}
		if i > 0 && e.Upper <= entries[i-1].Upper {
			return nil, eris.Errorf("colorscale: scale %q thresholds not strictly increasing at entry %d", name, i)
		}
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &Scale{name: name, neutral: neutral, entries: cp}, nil
}

// Name returns the scale's registry name.
func (s *Scale) Name() string { return s.name }

// Neutral returns the color used for missing or non-finite values.
func (s *Scale) Neutral() string { return s.neutral }

// ColorFor returns the color of the first bucket whose upper bound is
// >= v, scanning in ascending order. Values beyond every threshold clamp
// to the last bucket's color. Non-finite input returns the neutral color.
// The mapping is total over all float64 inputs.
func (s *Scale) ColorFor(v float64) string {
	if !finite(v) {
		return s.neutral
	}
	for _, e := range s.entries {
		if e.Upper >= v {
			return e.Color
		}
	}
	return s.entries[len(s.entries)-1].Color
}

// Legend returns the ordered (color, label) pairs for display.
func (s *Scale) Legend() []LegendEntry {
	out := make([]LegendEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = LegendEntry{Color: e.Color, Label: e.Label}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
