// Package viewstate coordinates the map, detail panel, and table: one
// state machine owns granularity, the active metric layer, filters,
// sort, search, and selection, and every surface derives its view from
// the same state. All transitions are synchronous and total.
package viewstate

import (
	"sync"

	"github.com/sells-group/fiber-atlas/internal/colorscale"
	"github.com/sells-group/fiber-atlas/internal/filter"
	"github.com/sells-group/fiber-atlas/internal/format"
	"github.com/sells-group/fiber-atlas/internal/model"
)

// Atlas is the data surface the coordinator reads. Satisfied by
// *atlas.Repository.
type Atlas interface {
	Loaded() bool
	Region(g model.Granularity, geoid string) (*model.Region, bool)
	Regions(g model.Granularity) []*model.Region
}

// Selection holds the pinned and hovered regions. At most one region is
// pinned; a pin suppresses hover-driven detail updates.
type Selection struct {
	Pinned  string `json:"pinned,omitempty"`
	Hovered string `json:"hovered,omitempty"`
}

// State is the full view state. Always fully defined: every field has a
// valid value from construction onward.
type State struct {
	Granularity model.Granularity `json:"granularity"`
	Focus       string            `json:"focus,omitempty"` // drilled-down state GEOID
	Layer       model.Layer       `json:"layer"`
	Filters     filter.Thresholds `json:"filters"`
	Sort        Sort              `json:"sort"`
	Search      string            `json:"search"`
	Selection   Selection         `json:"selection"`
}

// Coordinator owns the view state. It is constructed explicitly and
// passed to the surfaces that need it; there are no package globals.
type Coordinator struct {
	mu     sync.Mutex
	atlas  Atlas
	scales *colorscale.Registry
	memo   *colorscale.Memo

	// regionalState is the one state with county-level detail; drilling
	// down anywhere else is a no-op.
	regionalState string

	st State
}

// New creates a Coordinator in the national view with default layer,
// empty filters, and attractiveness-descending sort.
func New(a Atlas, scales *colorscale.Registry, regionalState string) *Coordinator {
	return &Coordinator{
		atlas:         a,
		scales:        scales,
		memo:          colorscale.NewMemo(scales, 4096),
		regionalState: regionalState,
		st: State{
			Granularity: model.GranularityNational,
			Layer:       model.LayerPenetration,
			Sort:        Sort{Key: SortAttractiveness, Desc: true},
		},
	}
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// DrillDown enters the regional view. It succeeds only from the
// national view, only for the designated regional state, and only when
// the regional datasets have loaded; otherwise it is a no-op and the
// prior state is retained. Entering the regional view clears selection.
func (c *Coordinator) DrillDown(geoid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st.Granularity != model.GranularityNational {
		return false
	}
	if geoid != c.regionalState {
		return false
	}
	if !c.atlas.Loaded() || len(c.atlas.Regions(model.GranularityRegional)) == 0 {
		return false
	}

	c.st.Granularity = model.GranularityRegional
	c.st.Focus = geoid
	c.st.Selection = Selection{}
	return true
}

// Return exits the regional view, clearing pin, hover, and focus. A
// no-op in the national view.
func (c *Coordinator) Return() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st.Granularity != model.GranularityRegional {
		return false
	}
	c.st.Granularity = model.GranularityNational
	c.st.Focus = ""
	c.st.Selection = Selection{}
	return true
}

// SetLayer switches the active metric layer. Selection and filters are
// untouched; only derived colors change.
func (c *Coordinator) SetLayer(l model.Layer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Layer = l
}

// SetFilters replaces the active filter thresholds. Data and selection
// are untouched; only the derived filtered-out flags change.
func (c *Coordinator) SetFilters(t filter.Thresholds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Filters = t
}

// Hover records a transient hovered region. Ignored while a region is
// pinned.
func (c *Coordinator) Hover(geoid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.Selection.Pinned != "" {
		return
	}
	c.st.Selection.Hovered = geoid
}

// Leave clears the hovered region. Ignored while a region is pinned.
func (c *Coordinator) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.Selection.Pinned != "" {
		return
	}
	c.st.Selection.Hovered = ""
}

// Pin pins a region. Pinning the already-pinned region is a no-op.
func (c *Coordinator) Pin(geoid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Selection.Pinned = geoid
}

// Unpin clears the pin. A no-op when nothing is pinned.
func (c *Coordinator) Unpin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Selection.Pinned = ""
}

// Click applies the click/activate semantics: clicking the pinned
// region unpins it; clicking any other region pins it in one step, so
// no observer ever sees two pins or a stale pin.
func (c *Coordinator) Click(geoid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.Selection.Pinned == geoid {
		c.st.Selection.Pinned = ""
		return
	}
	c.st.Selection.Pinned = geoid
	c.st.Selection.Hovered = ""
}

// SortBy sets the table sort key. Reselecting the current key toggles
// direction; a new key defaults to descending.
func (c *Coordinator) SortBy(key SortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.Sort.Key == key {
		c.st.Sort.Desc = !c.st.Sort.Desc
		return
	}
	c.st.Sort = Sort{Key: key, Desc: true}
}

// SetSearch sets the table search query. Idempotent: applying the same
// query again changes nothing, so debounced and immediate delivery
// derive the same views.
func (c *Coordinator) SetSearch(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Search = q
}

// RegionDetail is the detail panel's view of one region.
type RegionDetail struct {
	GEOID          string           `json:"geoid"`
	Name           string           `json:"name"`
	Pinned         bool             `json:"pinned"`
	Population     string           `json:"population"`
	Density        string           `json:"density"`
	MedianIncome   string           `json:"median_income"`
	MedianRent     string           `json:"median_rent"`
	HomeValue      string           `json:"home_value"`
	Penetration    string           `json:"penetration"`
	Demographic    string           `json:"demographic"`
	Attractiveness string           `json:"attractiveness"`
	PctBroadband   string           `json:"pct_broadband"`
	PctFiber       string           `json:"pct_fiber"`
	Operators      []model.Operator `json:"operators,omitempty"`
}

// Detail returns the detail panel content: the pinned region if any,
// else the hovered region. The second return is false when nothing is
// selected or the selected identifier has no record, in which case the
// panel renders its neutral placeholder.
func (c *Coordinator) Detail() (*RegionDetail, bool) {
	c.mu.Lock()
	sel := c.st.Selection
	g := c.st.Granularity
	c.mu.Unlock()

	geoid := sel.Pinned
	pinned := true
	if geoid == "" {
		geoid = sel.Hovered
		pinned = false
	}
	if geoid == "" {
		return nil, false
	}

	reg, ok := c.atlas.Region(g, geoid)
	if !ok {
		return nil, false
	}

	metric := func(m model.Metric) float64 {
		if v, ok := reg.Metric(m); ok {
			return v
		}
		return nan()
	}

	return &RegionDetail{
		GEOID:          reg.GEOID,
		Name:           reg.Name,
		Pinned:         pinned,
		Population:     format.Count(metric(model.MetricPopulation)),
		Density:        format.Ratio(metric(model.MetricHousingDensity)),
		MedianIncome:   format.Currency(metric(model.MetricMedianIncome)),
		MedianRent:     format.Currency(metric(model.MetricMedianRent)),
		HomeValue:      format.Currency(metric(model.MetricMedianHomeValue)),
		Penetration:    format.Percent(metric(model.MetricFiberPenetration), 1),
		Demographic:    format.Score(metric(model.MetricDemographicScore)),
		Attractiveness: format.Score(metric(model.MetricAttractiveness)),
		PctBroadband:   format.Percent(metric(model.MetricPctBroadband), 1),
		PctFiber:       format.Percent(metric(model.MetricPctFiber), 1),
		Operators:      reg.TopOperators(5),
	}, true
}

// RegionColor is the map's shading instruction for one region.
type RegionColor struct {
	GEOID       string `json:"geoid"`
	Color       string `json:"color"`
	FilteredOut bool   `json:"filtered_out"`
}

// MapShading derives the fill color and filtered-out flag for every
// region at the current granularity. Regions without a value for the
// active layer's metric take the scale's neutral color.
func (c *Coordinator) MapShading() []RegionColor {
	c.mu.Lock()
	g := c.st.Granularity
	c.mu.Unlock()
	return c.ShadingFor(g)
}

// ShadingFor shades the regions of an explicit granularity using the
// active layer, filters, and search.
func (c *Coordinator) ShadingFor(g model.Granularity) []RegionColor {
	c.mu.Lock()
	layer := c.st.Layer
	filters := c.st.Filters
	search := c.st.Search
	c.mu.Unlock()

	scale := c.scales.ForLayer(layer)
	metric := layer.Metric()

	regions := c.atlas.Regions(g)
	out := make([]RegionColor, 0, len(regions))
	for _, reg := range regions {
		v := nan()
		if mv, ok := reg.Metric(metric); ok {
			v = mv
		}
		out = append(out, RegionColor{
			GEOID:       reg.GEOID,
			Color:       c.memo.ColorFor(scale.Name(), v),
			FilteredOut: filter.Hidden(reg, filters, search),
		})
	}
	return out
}

// CacheStats returns the color memo's hit/miss counters.
func (c *Coordinator) CacheStats() colorscale.MemoStats {
	return c.memo.Stats()
}

// Legend returns the active layer's legend entries.
func (c *Coordinator) Legend() []colorscale.LegendEntry {
	c.mu.Lock()
	layer := c.st.Layer
	c.mu.Unlock()
	return c.scales.ForLayer(layer).Legend()
}
