package geomap

import (
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// Shape is a render-ready region outline: projected polygon rings in
// logical view coordinates.
type Shape struct {
	GEOID string         `json:"geoid"`
	Rings [][][2]float64 `json:"rings"`
}

// ProjectBoundary projects a boundary's polygon rings through the given
// projection. Non-areal geometries yield an empty shape with a warning;
// the map has nothing to shade for them.
func ProjectBoundary(b Boundary, p Projection) Shape {
	shape := Shape{GEOID: b.GEOID}

	switch g := b.Geom.(type) {
	case *geom.Polygon:
		shape.Rings = projectPolygon(g, p)
	case *geom.MultiPolygon:
		for i := range g.NumPolygons() {
			shape.Rings = append(shape.Rings, projectPolygon(g.Polygon(i), p)...)
		}
	default:
		zap.L().Warn("geomap: non-areal geometry skipped",
			zap.String("geoid", b.GEOID),
		)
	}
	return shape
}

// ProjectAll projects every boundary, dropping shapes that produced no
// rings.
func ProjectAll(boundaries []Boundary, p Projection) []Shape {
	out := make([]Shape, 0, len(boundaries))
	for _, b := range boundaries {
		s := ProjectBoundary(b, p)
		if len(s.Rings) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func projectPolygon(g *geom.Polygon, p Projection) [][][2]float64 {
	rings := make([][][2]float64, 0, g.NumLinearRings())
	for i := range g.NumLinearRings() {
		ring := g.LinearRing(i)
		coords := ring.Coords()
		projected := make([][2]float64, 0, len(coords))
		for _, c := range coords {
			x, y := p.Project(c[0], c[1])
			projected = append(projected, [2]float64{x, y})
		}
		rings = append(rings, projected)
	}
	return rings
}
