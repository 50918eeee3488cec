package colorscale

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fiber-atlas/internal/model"
)

func TestNewRegistry_BuiltinScales(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{ScalePenetration, ScaleDemographic, ScaleAttractiveness} {
		s, ok := r.Scale(name)
		require.True(t, ok, name)
		assert.Equal(t, name, s.Name())
		assert.NotEmpty(t, s.Legend())
	}

	_, ok := r.Scale("sepia")
	assert.False(t, ok)
}

func TestRegistry_ForLayer(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, ScalePenetration, r.ForLayer(model.LayerPenetration).Name())
	assert.Equal(t, ScaleDemographic, r.ForLayer(model.LayerDemographic).Name())
	assert.Equal(t, ScaleAttractiveness, r.ForLayer(model.LayerAttractiveness).Name())
}

func TestPenetrationLadder(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Scale(ScalePenetration)

	assert.Equal(t, "#d73027", s.ColorFor(0.05))
	assert.Equal(t, "#fee08b", s.ColorFor(0.42))
	assert.Equal(t, "#1a9850", s.ColorFor(0.95))
	// Malformed over-range input clamps rather than erroring.
	assert.Equal(t, "#1a9850", s.ColorFor(3.2))
	assert.Equal(t, s.Neutral(), s.ColorFor(math.NaN()))
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scales.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scales:
  penetration:
    neutral: "#eeeeee"
    entries:
      - {upper: 0.5, color: "#111111", label: "low"}
      - {upper: 1.0, color: "#222222", label: "high"}
`), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadOverrides(path))

	s, _ := r.Scale(ScalePenetration)
	assert.Equal(t, "#111111", s.ColorFor(0.3))
	assert.Equal(t, "#222222", s.ColorFor(0.9))
	assert.Equal(t, "#eeeeee", s.ColorFor(math.NaN()))

	// Other scales untouched.
	d, _ := r.Scale(ScaleDemographic)
	assert.Equal(t, "#eff3ff", d.ColorFor(0.1))
}

func TestLoadOverrides_Errors(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml")))

	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte(`
scales:
  sepia:
    entries:
      - {upper: 1.0, color: "#111", label: "x"}
`), 0o644))
	assert.Error(t, r.LoadOverrides(unknown))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
scales:
  penetration:
    entries:
      - {upper: 0.9, color: "#111", label: "a"}
      - {upper: 0.2, color: "#222", label: "b"}
`), 0o644))
	assert.Error(t, r.LoadOverrides(bad))
}
