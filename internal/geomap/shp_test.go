package geomap

import (
	"bytes"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func shpSquare(lng, lat float64) *shp.Polygon {
	return &shp.Polygon{
		NumParts:  1,
		NumPoints: 5,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: lng, Y: lat},
			{X: lng + 0.4, Y: lat},
			{X: lng + 0.4, Y: lat + 0.5},
			{X: lng, Y: lat + 0.5},
			{X: lng, Y: lat},
		},
	}
}

func TestPolygonGeom(t *testing.T) {
	g := PolygonGeom(shpSquare(-74.0, 42.0))
	require.NotNil(t, g)

	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 4326, mp.SRID())
}

func TestPolygonGeom_Empty(t *testing.T) {
	assert.Nil(t, PolygonGeom(nil))
	assert.Nil(t, PolygonGeom(&shp.Polygon{}))
}

func TestEncodeFeatures_Roundtrip(t *testing.T) {
	boundaries := []Boundary{
		{GEOID: "36047", Geom: PolygonGeom(shpSquare(-74.0, 42.0))},
		{GEOID: "36081", Geom: PolygonGeom(shpSquare(-73.5, 42.0))},
	}

	data, err := EncodeFeatures(boundaries, map[string]string{"36047": "Kings County"})
	require.NoError(t, err)

	decoded, err := DecodeFeatures(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "36047", decoded[0].GEOID)
	assert.Equal(t, "36081", decoded[1].GEOID)
}

func TestEncodeFeatures_Empty(t *testing.T) {
	_, err := EncodeFeatures(nil, nil)
	assert.Error(t, err)
}
