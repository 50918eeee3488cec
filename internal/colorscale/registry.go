package colorscale

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fiber-atlas/internal/model"
)

// Registry scale names. Each map layer has exactly one scale.
const (
	ScalePenetration    = "penetration"
	ScaleDemographic    = "demographic"
	ScaleAttractiveness = "attractiveness"
)

// neutralGray is the placeholder color for regions with no usable value.
const neutralGray = "#c8c8c8"

// Registry holds the named scales. Constructed once at startup.
type Registry struct {
	scales map[string]*Scale
}

// NewRegistry returns a registry populated with the three built-in scales.
func NewRegistry() *Registry {
	r := &Registry{scales: make(map[string]*Scale)}
	for _, s := range builtinScales() {
		r.scales[s.Name()] = s
	}
	return r
}

// builtinScales enumerates the shipped threshold ladders. These are
// domain configuration: penetration buckets follow build-vs-buy
// screening bands, the two composites use equal quintiles.
func builtinScales() []*Scale {
	mustNew := func(name, neutral string, entries []Entry) *Scale {
		s, err := New(name, neutral, entries)
		if err != nil {
			panic(err) // static tables, validated by tests
		}
		return s
	}

	return []*Scale{
		mustNew(ScalePenetration, neutralGray, []Entry{
			{Upper: 0.10, Color: "#d73027", Label: "< 10%"},
			{Upper: 0.25, Color: "#fc8d59", Label: "10–25%"},
			{Upper: 0.50, Color: "#fee08b", Label: "25–50%"},
			{Upper: 0.75, Color: "#d9ef8b", Label: "50–75%"},
			{Upper: 0.90, Color: "#91cf60", Label: "75–90%"},
			{Upper: 1.00, Color: "#1a9850", Label: "> 90%"},
		}),
		mustNew(ScaleDemographic, neutralGray, []Entry{
			{Upper: 0.20, Color: "#eff3ff", Label: "Very low"},
			{Upper: 0.40, Color: "#bdd7e7", Label: "Low"},
			{Upper: 0.60, Color: "#6baed6", Label: "Moderate"},
			{Upper: 0.80, Color: "#3182bd", Label: "High"},
			{Upper: 1.00, Color: "#08519c", Label: "Very high"},
		}),
		mustNew(ScaleAttractiveness, neutralGray, []Entry{
			{Upper: 0.20, Color: "#f2f0f7", Label: "Very low"},
			{Upper: 0.40, Color: "#cbc9e2", Label: "Low"},
			{Upper: 0.60, Color: "#9e9ac8", Label: "Moderate"},
			{Upper: 0.80, Color: "#756bb1", Label: "High"},
			{Upper: 1.00, Color: "#54278f", Label: "Very high"},
		}),
	}
}

// Scale returns the named scale. The second return is false for unknown
// names.
func (r *Registry) Scale(name string) (*Scale, bool) {
	s, ok := r.scales[name]
	return s, ok
}

// ForLayer returns the scale driving the given map layer.
func (r *Registry) ForLayer(l model.Layer) *Scale {
	switch l {
	case model.LayerPenetration:
		return r.scales[ScalePenetration]
	case model.LayerDemographic:
		return r.scales[ScaleDemographic]
	case model.LayerAttractiveness:
		return r.scales[ScaleAttractiveness]
	default:
		// Unreachable for layers produced by model.ParseLayer.
		return r.scales[ScalePenetration]
	}
}

// scaleFile is the YAML shape of an override file: a map of scale name
// to neutral color and entry ladder.
type scaleFile struct {
	Scales map[string]struct {
		Neutral string  `yaml:"neutral"`
		Entries []Entry `yaml:"entries"`
	} `yaml:"scales"`
}

// LoadOverrides replaces built-in ladders with ladders read from a YAML
// file. Only the three known scale names may be overridden; each
// replacement goes through the same validation as the built-ins.
func (r *Registry) LoadOverrides(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrap(err, "colorscale: read override file")
	}

	var f scaleFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return eris.Wrap(err, "colorscale: parse override file")
	}

	for name, def := range f.Scales {
		if _, ok := r.scales[name]; !ok {
			return eris.Errorf("colorscale: override for unknown scale %q", name)
		}
		neutral := def.Neutral
		if neutral == "" {
			neutral = neutralGray
		}
		s, err := New(name, neutral, def.Entries)
		if err != nil {
			return eris.Wrapf(err, "colorscale: override %q", name)
		}
		r.scales[name] = s
	}
	return nil
}
