package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	GEOID string  `json:"geoid"`
	Value float64 `json:"value"`
}

func TestDecodeJSONArray(t *testing.T) {
	input := `[{"geoid":"36061","value":0.42},{"geoid":"36047","value":0.61}]`

	outCh, errCh := DecodeJSONArray[sample](context.Background(), strings.NewReader(input))

	var items []sample
	for item := range outCh {
		items = append(items, item)
	}
	require.NoError(t, <-errCh)

	require.Len(t, items, 2)
	assert.Equal(t, "36061", items[0].GEOID)
	assert.Equal(t, 0.61, items[1].Value)
}

func TestDecodeJSONArray_NotAnArray(t *testing.T) {
	outCh, errCh := DecodeJSONArray[sample](context.Background(), strings.NewReader(`{"geoid":"36061"}`))
	for range outCh {
	}
	assert.Error(t, <-errCh)
}

func TestDecodeJSONArray_MalformedElement(t *testing.T) {
	outCh, errCh := DecodeJSONArray[sample](context.Background(), strings.NewReader(`[{"geoid":36061}]`))
	for range outCh {
	}
	assert.Error(t, <-errCh)
}

func TestDecodeJSONObject(t *testing.T) {
	obj, err := DecodeJSONObject[sample](strings.NewReader(`{"geoid":"36","value":1}`))
	require.NoError(t, err)
	assert.Equal(t, "36", obj.GEOID)

	_, err = DecodeJSONObject[sample](strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestDispatcher_ForURL(t *testing.T) {
	d := NewDispatcher(HTTPOptions{})

	f, err := d.ForURL("https://example.com/counties.json")
	require.NoError(t, err)
	assert.Same(t, d.HTTP, f)

	f, err = d.ForURL("ftp://ftp2.census.gov/geo/tiger/file.zip")
	require.NoError(t, err)
	assert.Same(t, d.FTP, f)

	f, err = d.ForURL("/var/data/counties.json")
	require.NoError(t, err)
	assert.Same(t, d.File, f)

	f, err = d.ForURL("file:///var/data/counties.json")
	require.NoError(t, err)
	assert.Same(t, d.File, f)

	_, err = d.ForURL("gopher://example.com/x")
	assert.Error(t, err)
}
