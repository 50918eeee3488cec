package atlas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/fiber-atlas/internal/fetcher"
)

// nyCountyFIPS lists the 62 NY county FIPS suffixes (odd codes 001-123).
func nyCountyFIPS() []string {
	var out []string
	for i := 1; i <= 123; i += 2 {
		out = append(out, fmt.Sprintf("%03d", i))
	}
	return out
}

var countyNames = map[string]string{
	"36047": "Kings",
	"36061": "New York",
	"36081": "Queens",
	"36005": "Bronx",
	"36085": "Richmond",
	"36001": "Albany",
}

func countyRecordJSON(fips string) string {
	geoid := "36" + fips
	name, ok := countyNames[geoid]
	if !ok {
		name = "County " + geoid
	}
	pop := 50_000.0
	density := 120.0
	urbanCore := false
	switch geoid {
	case "36061":
		pop, density, urbanCore = 1_628_701, 27_500, true
	case "36047":
		pop, density, urbanCore = 2_736_074, 15_600, true
	case "36081":
		pop, density, urbanCore = 2_405_464, 8_600, true
	case "36005":
		pop, density, urbanCore = 1_472_654, 13_000, true
	case "36085":
		pop, density, urbanCore = 495_747, 3_200, true
	}
	return fmt.Sprintf(`{
		"geoid": %q, "name": %q,
		"population": %g, "housing_density": %g,
		"median_income": 68486, "median_rent": 1450, "median_home_value": 340000,
		"fiber_penetration": 0.42, "demographic_score": 0.61, "attractiveness": 0.55,
		"pct_broadband": 0.87, "pct_fiber": 0.39,
		"urban_core": %t,
		"operators": [
			{"name": "Verizon Fios", "passings": 890000},
			{"name": "Spectrum", "passings": 655000},
			{"name": "Optimum", "passings": 410000}
		]
	}`, geoid, name, pop, density, urbanCore)
}

func squareFeature(geoid string, lng, lat float64) string {
	return fmt.Sprintf(`{
		"type": "Feature",
		"properties": {"GEOID": %q},
		"geometry": {"type": "Polygon", "coordinates": [[
			[%g,%g],[%g,%g],[%g,%g],[%g,%g],[%g,%g]
		]]}
	}`, geoid, lng, lat, lng+0.2, lat, lng+0.2, lat+0.2, lng, lat+0.2, lng, lat)
}

// writeFixtures writes the four well-formed datasets into dir and
// returns the repository sources pointing at them.
func writeFixtures(t *testing.T, dir string) Sources {
	t.Helper()

	var countyRecs, countyFeats []string
	for i, fips := range nyCountyFIPS() {
		countyRecs = append(countyRecs, countyRecordJSON(fips))
		lng := -79.5 + float64(i%8)*0.5
		lat := 40.5 + float64(i/8)*0.5
		countyFeats = append(countyFeats, squareFeature("36"+fips, lng, lat))
	}

	states := `[
		{"geoid": "36", "name": "New York", "population": 19571216, "housing_density": 177,
		 "fiber_penetration": 0.48, "demographic_score": 0.66, "attractiveness": 0.58},
		{"geoid": "06", "name": "California", "population": 38965193, "housing_density": 94,
		 "fiber_penetration": 0.51, "demographic_score": 0.63, "attractiveness": 0.54},
		{"geoid": "48", "name": "Texas", "population": 30503301, "housing_density": 44,
		 "fiber_penetration": 0.37, "demographic_score": 0.57, "attractiveness": 0.49}
	]`
	stateFeats := []string{
		squareFeature("36", -79.0, 41.0),
		squareFeature("06", -124.0, 35.0),
		squareFeature("48", -103.0, 29.0),
	}

	files := map[string]string{
		"counties.json":          "[" + strings.Join(countyRecs, ",") + "]",
		"county_boundaries.json": `{"type":"FeatureCollection","features":[` + strings.Join(countyFeats, ",") + `]}`,
		"states.json":            states,
		"state_boundaries.json":  `{"type":"FeatureCollection","features":[` + strings.Join(stateFeats, ",") + `]}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	return Sources{
		Counties:         filepath.Join(dir, "counties.json"),
		CountyBoundaries: filepath.Join(dir, "county_boundaries.json"),
		States:           filepath.Join(dir, "states.json"),
		StateBoundaries:  filepath.Join(dir, "state_boundaries.json"),
	}
}

func newTestRepository(t *testing.T, dir string) *Repository {
	t.Helper()
	sources := writeFixtures(t, dir)
	return New(sources, fetcher.NewDispatcher(fetcher.HTTPOptions{}), nil)
}
