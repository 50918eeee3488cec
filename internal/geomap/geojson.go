// Package geomap decodes boundary geometries and projects them into the
// fixed logical coordinate spaces the map views render into.
package geomap

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Boundary is a region geometry keyed by the region identifier it
// shades. Read-only after load.
type Boundary struct {
	GEOID string
	Geom  geom.T
}

// DecodeFeatures parses a GeoJSON FeatureCollection into boundaries.
// The region identifier is taken from the GEOID property, falling back
// to STATEFP (+COUNTYFP for county features). An empty collection is an
// error; individual features without a usable identifier or geometry
// are skipped with a warning.
func DecodeFeatures(r io.Reader) ([]Boundary, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "geomap: read feature collection")
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, eris.Wrap(err, "geomap: parse feature collection")
	}
	if len(fc.Features) == 0 {
		return nil, eris.New("geomap: feature collection has no features")
	}

	out := make([]Boundary, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			zap.L().Warn("geomap: feature without geometry skipped", zap.Int("index", i))
			continue
		}
		geoid := featureGEOID(f.Properties)
		if geoid == "" {
			zap.L().Warn("geomap: feature without identifier skipped", zap.Int("index", i))
			continue
		}
		out = append(out, Boundary{GEOID: geoid, Geom: f.Geometry})
	}

	if len(out) == 0 {
		return nil, eris.New("geomap: no usable features in collection")
	}
	return out, nil
}

// featureGEOID extracts the region identifier from feature properties.
func featureGEOID(props map[string]interface{}) string {
	for _, key := range []string{"GEOID", "geoid"} {
		if s := propString(props, key); s != "" {
			return s
		}
	}
	state := propString(props, "STATEFP")
	if state == "" {
		return ""
	}
	if county := propString(props, "COUNTYFP"); county != "" {
		return state + county
	}
	return state
}

func propString(props map[string]interface{}, key string) string {
	v, ok := props[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return fmt.Sprintf("%g", s)
	default:
		return ""
	}
}
