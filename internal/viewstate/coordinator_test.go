package viewstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fiber-atlas/internal/colorscale"
	"github.com/sells-group/fiber-atlas/internal/filter"
	"github.com/sells-group/fiber-atlas/internal/model"
)

type fakeAtlas struct {
	loaded  bool
	regions map[model.Granularity][]*model.Region
}

func (f *fakeAtlas) Loaded() bool { return f.loaded }

func (f *fakeAtlas) Region(g model.Granularity, geoid string) (*model.Region, bool) {
	for _, r := range f.regions[g] {
		if r.GEOID == geoid {
			return r, true
		}
	}
	return nil, false
}

func (f *fakeAtlas) Regions(g model.Granularity) []*model.Region {
	out := make([]*model.Region, len(f.regions[g]))
	copy(out, f.regions[g])
	return out
}

func county(geoid, name string, pop, density, pen, attr float64, urban bool) *model.Region {
	return &model.Region{
		GEOID:       geoid,
		Name:        name,
		Granularity: model.GranularityRegional,
		UrbanCore:   urban,
		Metrics: map[model.Metric]float64{
			model.MetricPopulation:       pop,
			model.MetricHousingDensity:   density,
			model.MetricFiberPenetration: pen,
			model.MetricDemographicScore: 0.5,
			model.MetricAttractiveness:   attr,
			model.MetricMedianIncome:     70000,
		},
	}
}

func newTestCoordinator(loaded bool) (*Coordinator, *fakeAtlas) {
	yates := county("36123", "Yates County", 24774, 0, 0.12, 0.22, false)
	delete(yates.Metrics, model.MetricHousingDensity)

	a := &fakeAtlas{
		loaded: loaded,
		regions: map[model.Granularity][]*model.Region{
			model.GranularityNational: {
				{
					GEOID:       "36",
					Name:        "New York",
					Granularity: model.GranularityNational,
					Metrics: map[model.Metric]float64{
						model.MetricPopulation:       20201249,
						model.MetricHousingDensity:   420,
						model.MetricFiberPenetration: 0.55,
						model.MetricAttractiveness:   0.64,
					},
					Operators: []model.Operator{
						{Name: "Verizon", Passings: 4200000},
						{Name: "Optimum", Passings: 2100000},
					},
				},
				{
					GEOID:       "06",
					Name:        "California",
					Granularity: model.GranularityNational,
					Metrics: map[model.Metric]float64{
						model.MetricPopulation:       39538223,
						model.MetricHousingDensity:   253,
						model.MetricFiberPenetration: 0.48,
						model.MetricAttractiveness:   0.58,
					},
				},
			},
			model.GranularityRegional: {
				county("36001", "Albany County", 314848, 1300, 0.72, 0.66, false),
				county("36047", "Kings County", 2736074, 37000, 0.42, 0.61, true),
				county("36061", "New York County", 1628701, 27500, 0.38, 0.57, true),
				county("36081", "Queens County", 2405464, 21000, 0.44, 0.59, true),
				yates,
			},
		},
	}
	if !loaded {
		a.regions = nil
	}
	return New(a, colorscale.NewRegistry(), "36"), a
}

func TestCoordinator_Defaults(t *testing.T) {
	c, _ := newTestCoordinator(true)
	st := c.Snapshot()

	assert.Equal(t, model.GranularityNational, st.Granularity)
	assert.Equal(t, model.LayerPenetration, st.Layer)
	assert.Equal(t, Sort{Key: SortAttractiveness, Desc: true}, st.Sort)
	assert.Empty(t, st.Focus)
	assert.Empty(t, st.Search)
	assert.Equal(t, Selection{}, st.Selection)
}

func TestCoordinator_DrillDown(t *testing.T) {
	c, _ := newTestCoordinator(true)

	// only the designated state drills down
	assert.False(t, c.DrillDown("06"))
	assert.Equal(t, model.GranularityNational, c.Snapshot().Granularity)

	c.Pin("06")
	require.True(t, c.DrillDown("36"))
	st := c.Snapshot()
	assert.Equal(t, model.GranularityRegional, st.Granularity)
	assert.Equal(t, "36", st.Focus)
	assert.Equal(t, Selection{}, st.Selection, "entering regional view clears selection")

	// already regional: no-op
	assert.False(t, c.DrillDown("36"))
}

func TestCoordinator_DrillDownRequiresData(t *testing.T) {
	c, _ := newTestCoordinator(false)

	assert.False(t, c.DrillDown("36"))
	st := c.Snapshot()
	assert.Equal(t, model.GranularityNational, st.Granularity)
	assert.Empty(t, st.Focus)
}

func TestCoordinator_Return(t *testing.T) {
	c, _ := newTestCoordinator(true)

	assert.False(t, c.Return(), "no-op in national view")

	require.True(t, c.DrillDown("36"))
	c.Pin("36047")
	c.SetSearch("kings")

	require.True(t, c.Return())
	st := c.Snapshot()
	assert.Equal(t, model.GranularityNational, st.Granularity)
	assert.Empty(t, st.Focus)
	assert.Equal(t, Selection{}, st.Selection)
	assert.Equal(t, "kings", st.Search, "search survives navigation")
}

func TestCoordinator_PinIdempotent(t *testing.T) {
	c, _ := newTestCoordinator(true)

	c.Pin("36")
	before := c.Snapshot()
	c.Pin("36")
	assert.Equal(t, before, c.Snapshot())

	c.Unpin()
	before = c.Snapshot()
	c.Unpin()
	assert.Equal(t, before, c.Snapshot())
}

func TestCoordinator_ClickRepins(t *testing.T) {
	c, _ := newTestCoordinator(true)

	c.Click("36")
	assert.Equal(t, "36", c.Snapshot().Selection.Pinned)

	// pin moves to the other region in one step
	c.Click("06")
	assert.Equal(t, "06", c.Snapshot().Selection.Pinned)

	// clicking the pinned region unpins
	c.Click("06")
	assert.Empty(t, c.Snapshot().Selection.Pinned)
}

func TestCoordinator_HoverSuppressedWhilePinned(t *testing.T) {
	c, _ := newTestCoordinator(true)

	c.Hover("06")
	assert.Equal(t, "06", c.Snapshot().Selection.Hovered)
	c.Leave()
	assert.Empty(t, c.Snapshot().Selection.Hovered)

	c.Pin("36")
	c.Hover("06")
	assert.Empty(t, c.Snapshot().Selection.Hovered)
	c.Leave()

	d, ok := c.Detail()
	require.True(t, ok)
	assert.Equal(t, "36", d.GEOID)
	assert.True(t, d.Pinned)
}

func TestCoordinator_Detail(t *testing.T) {
	c, _ := newTestCoordinator(true)

	_, ok := c.Detail()
	assert.False(t, ok, "nothing selected")

	c.Hover("36")
	d, ok := c.Detail()
	require.True(t, ok)
	assert.Equal(t, "New York", d.Name)
	assert.False(t, d.Pinned)
	assert.Equal(t, "20,201,249", d.Population)
	assert.Equal(t, "55.0%", d.Penetration)
	assert.Equal(t, "N/A", d.Demographic, "missing metric renders as N/A")
	require.Len(t, d.Operators, 2)
	assert.Equal(t, "Verizon", d.Operators[0].Name)

	c.Pin("nope")
	_, ok = c.Detail()
	assert.False(t, ok, "unknown identifier renders the placeholder")
}

func TestCoordinator_SortBy(t *testing.T) {
	c, _ := newTestCoordinator(true)

	c.SortBy(SortPopulation)
	assert.Equal(t, Sort{Key: SortPopulation, Desc: true}, c.Snapshot().Sort)

	c.SortBy(SortPopulation)
	assert.Equal(t, Sort{Key: SortPopulation, Desc: false}, c.Snapshot().Sort)

	c.SortBy(SortName)
	assert.Equal(t, Sort{Key: SortName, Desc: true}, c.Snapshot().Sort)
}

func TestCoordinator_TableRowsSorted(t *testing.T) {
	c, _ := newTestCoordinator(true)
	require.True(t, c.DrillDown("36"))

	c.SortBy(SortPopulation)
	rows := c.TableRows()
	require.Len(t, rows, 5)
	assert.Equal(t, "36047", rows[0].GEOID)
	assert.Equal(t, "36081", rows[1].GEOID)
	assert.Equal(t, "36061", rows[2].GEOID)
	assert.Equal(t, "1,628,701", rows[2].Population)

	c.SortBy(SortPopulation) // toggle to ascending
	rows = c.TableRows()
	assert.Equal(t, "36123", rows[0].GEOID)
	assert.Equal(t, "36047", rows[4].GEOID)
}

func TestCoordinator_TableRowsMissingMetricSortsLast(t *testing.T) {
	c, _ := newTestCoordinator(true)
	require.True(t, c.DrillDown("36"))

	c.SortBy(SortDensity)
	rows := c.TableRows()
	require.Len(t, rows, 5)
	assert.Equal(t, "36123", rows[4].GEOID, "missing density sorts last descending")
	assert.Equal(t, "N/A", rows[4].Density)

	c.SortBy(SortDensity)
	rows = c.TableRows()
	assert.Equal(t, "36123", rows[4].GEOID, "missing density sorts last ascending too")
}

func TestCoordinator_SearchFlagsRows(t *testing.T) {
	c, _ := newTestCoordinator(true)
	require.True(t, c.DrillDown("36"))

	c.SetSearch("kings")
	for _, row := range c.TableRows() {
		if row.GEOID == "36047" {
			assert.False(t, row.SearchMiss)
			assert.False(t, row.Hidden)
			continue
		}
		assert.True(t, row.SearchMiss, row.Name)
	}

	// same query again is a no-op
	before := c.Snapshot()
	c.SetSearch("kings")
	assert.Equal(t, before, c.Snapshot())
}

func TestCoordinator_MapAndTableAgree(t *testing.T) {
	c, _ := newTestCoordinator(true)
	require.True(t, c.DrillDown("36"))

	c.SetFilters(filter.Thresholds{MinPopulation: 2_000_000})

	hidden := make(map[string]bool)
	for _, row := range c.TableRows() {
		hidden[row.GEOID] = row.Hidden
	}
	shading := c.MapShading()
	require.Len(t, shading, len(hidden))
	for _, s := range shading {
		assert.Equal(t, hidden[s.GEOID], s.FilteredOut, s.GEOID)
	}

	// only Kings and Queens clear the floor; Yates is excluded for its
	// missing density regardless of thresholds
	assert.False(t, hidden["36047"])
	assert.False(t, hidden["36081"])
	assert.True(t, hidden["36061"])
	assert.True(t, hidden["36123"])
}

func TestCoordinator_MapShadingColors(t *testing.T) {
	c, _ := newTestCoordinator(true)
	require.True(t, c.DrillDown("36"))

	colors := make(map[string]string)
	for _, s := range c.MapShading() {
		colors[s.GEOID] = s.Color
	}
	assert.Equal(t, "#d9ef8b", colors["36001"], "0.72 lands in the 50–75% bucket")
	assert.Equal(t, "#fee08b", colors["36047"], "0.42 lands in the 25–50% bucket")
	assert.Equal(t, "#fc8d59", colors["36123"], "0.12 lands in the 10–25% bucket")

	c.SetLayer(model.LayerDemographic)
	for _, s := range c.MapShading() {
		if s.GEOID == "36123" {
			assert.Equal(t, "#6baed6", s.Color)
		}
	}
}

func TestCoordinator_Legend(t *testing.T) {
	c, _ := newTestCoordinator(true)

	legend := c.Legend()
	require.Len(t, legend, 6)
	assert.Equal(t, "< 10%", legend[0].Label)

	c.SetLayer(model.LayerAttractiveness)
	legend = c.Legend()
	require.Len(t, legend, 5)
	assert.Equal(t, "#54278f", legend[4].Color)
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey(" Population ")
	require.NoError(t, err)
	assert.Equal(t, SortPopulation, k)

	_, err = ParseSortKey("sideways")
	assert.Error(t, err)
}
