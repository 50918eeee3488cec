package geomap

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Logical view spaces. The national view keeps the wide aspect ratio of
// the conterminous US; the regional view is taller to fit New York.
const (
	NationalWidth  = 960.0
	NationalHeight = 600.0
	RegionalWidth  = 760.0
	RegionalHeight = 700.0
)

// Projection maps a lng/lat pair into a logical coordinate space with
// y growing downward.
type Projection interface {
	Project(lng, lat float64) (x, y float64)
}

// albers is an Albers equal-area conic projection in raw (unit-sphere)
// coordinates with y growing north.
type albers struct {
	n, c, rho0, lambda0 float64
}

func newAlbers(phi1, phi2, phi0, lambda0 float64) albers {
	p1 := phi1 * math.Pi / 180
	p2 := phi2 * math.Pi / 180
	p0 := phi0 * math.Pi / 180
	n := (math.Sin(p1) + math.Sin(p2)) / 2
	c := math.Cos(p1)*math.Cos(p1) + 2*n*math.Sin(p1)
	return albers{
		n:       n,
		c:       c,
		rho0:    math.Sqrt(c-2*n*math.Sin(p0)) / n,
		lambda0: lambda0 * math.Pi / 180,
	}
}

func (a albers) raw(lng, lat float64) (x, y float64) {
	phi := lat * math.Pi / 180
	lambda := lng * math.Pi / 180
	rho := math.Sqrt(a.c-2*a.n*math.Sin(phi)) / a.n
	theta := a.n * (lambda - a.lambda0)
	return rho * math.Sin(theta), a.rho0 - rho*math.Cos(theta)
}

// AlbersUSA is the composite national projection: an equal-area conic
// for the lower 48 with rescaled Alaska and Hawaii insets, targeting
// the 960x600 national view space.
type AlbersUSA struct {
	lower48 albers
	alaska  albers
	hawaii  albers
}

// NewAlbersUSA creates the national projection.
func NewAlbersUSA() *AlbersUSA {
	return &AlbersUSA{
		lower48: newAlbers(29.5, 45.5, 37.5, -96),
		alaska:  newAlbers(55, 65, 63, -154),
		hawaii:  newAlbers(8, 18, 20, -157),
	}
}

// Composite layout constants tuned to the 960x600 view space.
const (
	albersScale = 1070.0
	albersTX    = NationalWidth / 2
	albersTY    = NationalHeight / 2
)

// Project maps a lng/lat to the national view space. Alaska is drawn at
// roughly a third of true scale in the lower-left inset, Hawaii beside it.
func (p *AlbersUSA) Project(lng, lat float64) (x, y float64) {
	switch {
	case lat > 50 && lng < -125: // Alaska
		rx, ry := p.alaska.raw(lng, lat)
		scale := albersScale * 0.35
		return 0.12*NationalWidth + scale*rx, 0.90*NationalHeight - scale*ry
	case lat < 25 && lng < -150: // Hawaii
		rx, ry := p.hawaii.raw(lng, lat)
		return 0.30*NationalWidth + albersScale*rx, 0.92*NationalHeight - albersScale*ry
	default:
		rx, ry := p.lower48.raw(lng, lat)
		return albersTX + albersScale*rx, albersTY - albersScale*ry
	}
}

// FittedTM is a spherical transverse Mercator projection centered on a
// dataset's bounds and scaled to fill a view space with padding. Used
// for the regional (NY county) view, where a conformal projection keeps
// county shapes familiar.
type FittedTM struct {
	lambda0 float64 // central meridian, radians
	phi0    float64 // latitude offset subtracted after projection
	scale   float64
	tx, ty  float64
}

func tmRaw(lambda0 float64, lng, lat float64) (x, y float64) {
	phi := lat * math.Pi / 180
	lambda := lng*math.Pi/180 - lambda0
	b := math.Cos(phi) * math.Sin(lambda)
	x = 0.5 * math.Log((1+b)/(1-b))
	y = math.Atan2(math.Tan(phi), math.Cos(lambda))
	return x, y
}

// NewFittedTM builds a transverse Mercator projection whose central
// meridian is the midpoint of the boundaries' longitude range, fitted
// to a width x height space with the given padding.
func NewFittedTM(boundaries []Boundary, width, height, padding float64) *FittedTM {
	bounds := datasetBounds(boundaries)
	lambda0 := (bounds.Min(0) + bounds.Max(0)) / 2 * math.Pi / 180

	// Project the dataset's corner envelope to find raw extents.
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range boundaries {
		for _, coord := range flatCoords(b.Geom) {
			x, y := tmRaw(lambda0, coord[0], coord[1])
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}

	spanX := maxX - minX
	spanY := maxY - minY
	if spanX <= 0 || spanY <= 0 {
		return &FittedTM{lambda0: lambda0, scale: 1, tx: width / 2, ty: height / 2}
	}

	scale := math.Min((width-2*padding)/spanX, (height-2*padding)/spanY)
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2

	return &FittedTM{
		lambda0: lambda0,
		scale:   scale,
		tx:      width/2 - scale*cx,
		ty:      height/2 + scale*cy,
	}
}

// Project maps a lng/lat to the fitted view space.
func (p *FittedTM) Project(lng, lat float64) (x, y float64) {
	rx, ry := tmRaw(p.lambda0, lng, lat)
	return p.tx + p.scale*rx, p.ty - p.scale*ry
}

// datasetBounds returns the lng/lat envelope of all boundaries.
func datasetBounds(boundaries []Boundary) *geom.Bounds {
	bounds := geom.NewBounds(geom.XY)
	for _, b := range boundaries {
		bounds.Extend(b.Geom)
	}
	return bounds
}

// flatCoords returns every vertex of the geometry as [lng, lat] pairs.
func flatCoords(g geom.T) [][2]float64 {
	flat := g.FlatCoords()
	stride := g.Stride()
	out := make([][2]float64, 0, len(flat)/stride)
	for i := 0; i+1 < len(flat); i += stride {
		out = append(out, [2]float64{flat[i], flat[i+1]})
	}
	return out
}
