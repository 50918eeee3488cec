package geomap

import (
	"encoding/json"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// PolygonGeom converts a shapefile polygon record to a lon/lat
// MultiPolygon. Returns nil for empty or malformed records.
func PolygonGeom(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("geomap: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geomap: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// EncodeFeatures renders boundaries as a GeoJSON feature collection in
// the form DecodeFeatures reads back. names supplies an optional NAME
// property per identifier.
func EncodeFeatures(boundaries []Boundary, names map[string]string) ([]byte, error) {
	if len(boundaries) == 0 {
		return nil, eris.New("geomap: no boundaries to encode")
	}

	fc := &geojson.FeatureCollection{}
	for _, b := range boundaries {
		props := map[string]interface{}{"GEOID": b.GEOID}
		if n := names[b.GEOID]; n != "" {
			props["NAME"] = n
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         b.GEOID,
			Geometry:   b.Geom,
			Properties: props,
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "geomap: encode feature collection")
	}
	return data, nil
}
