// Package atlas owns the four static datasets: it loads them as a unit,
// indexes attribute records by region identifier, and serves pure reads
// to the map, panel, and table surfaces.
package atlas

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fiber-atlas/internal/fetcher"
	"github.com/sells-group/fiber-atlas/internal/geomap"
	"github.com/sells-group/fiber-atlas/internal/model"
	"github.com/sells-group/fiber-atlas/internal/store"
)

// Sources holds one URL per dataset (http, ftp, or local path).
type Sources struct {
	Counties         string
	CountyBoundaries string
	States           string
	StateBoundaries  string
}

// downloader is the fetch surface the repository needs; satisfied by
// *fetcher.Dispatcher.
type downloader interface {
	Download(ctx context.Context, url string) (io.ReadCloser, error)
	DownloadIfChanged(ctx context.Context, url, etag string) (io.ReadCloser, string, bool, error)
}

// snapshot is one fully-loaded, immutable view of all four datasets.
// Either every dataset is present or the snapshot does not exist.
type snapshot struct {
	regions    map[model.Granularity]map[string]*model.Region
	sorted     map[model.Granularity][]*model.Region
	boundaries map[model.Granularity][]geomap.Boundary
	loadedAt   time.Time
	loadID     uuid.UUID
}

// Repository loads and indexes the atlas datasets. Reads never observe
// a partially-loaded state: a failed load leaves the previous snapshot
// untouched.
type Repository struct {
	mu      sync.RWMutex
	snap    *snapshot
	lastErr error

	sources Sources
	dl      downloader
	store   store.Store // optional payload cache
}

// New creates a Repository. The store may be nil, in which case every
// load downloads all four datasets unconditionally.
func New(sources Sources, dl downloader, st store.Store) *Repository {
	return &Repository{sources: sources, dl: dl, store: st}
}

// NewFromDispatcher is the common construction path.
func NewFromDispatcher(sources Sources, d *fetcher.Dispatcher, st store.Store) *Repository {
	return New(sources, d, st)
}

// Load fetches the four datasets in parallel and atomically replaces
// the in-memory snapshot. It fails as a whole on the first transport or
// parse error, naming the failing dataset; structural oddities in
// otherwise-parseable data only warn.
func (r *Repository) Load(ctx context.Context) error {
	loadID := uuid.New()
	started := time.Now().UTC()

	zap.L().Info("atlas: load starting", zap.String("load_id", loadID.String()))

	var (
		counties []*model.Region
		states   []*model.Region
		countyB  []geomap.Boundary
		stateB   []geomap.Boundary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counties, err = r.loadRecords(gctx, DatasetCounties, r.sources.Counties, model.GranularityRegional)
		return err
	})
	g.Go(func() error {
		var err error
		states, err = r.loadRecords(gctx, DatasetStates, r.sources.States, model.GranularityNational)
		return err
	})
	g.Go(func() error {
		var err error
		countyB, err = r.loadBoundaries(gctx, DatasetCountyBoundaries, r.sources.CountyBoundaries)
		return err
	})
	g.Go(func() error {
		var err error
		stateB, err = r.loadBoundaries(gctx, DatasetStateBoundaries, r.sources.StateBoundaries)
		return err
	})

	err := g.Wait()
	finished := time.Now().UTC()
	r.audit(ctx, loadID, started, finished, err)

	if err != nil {
		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()
		zap.L().Error("atlas: load failed", zap.String("load_id", loadID.String()), zap.Error(err))
		return err
	}

	snap := &snapshot{
		regions: map[model.Granularity]map[string]*model.Region{
			model.GranularityNational: indexByGEOID(states),
			model.GranularityRegional: indexByGEOID(counties),
		},
		sorted: map[model.Granularity][]*model.Region{
			model.GranularityNational: sortByGEOID(states),
			model.GranularityRegional: sortByGEOID(counties),
		},
		boundaries: map[model.Granularity][]geomap.Boundary{
			model.GranularityNational: stateB,
			model.GranularityRegional: countyB,
		},
		loadedAt: finished,
		loadID:   loadID,
	}

	structuralCheck(DatasetCounties, counties)
	structuralCheck(DatasetStates, states)

	r.mu.Lock()
	r.snap = snap
	r.lastErr = nil
	r.mu.Unlock()

	zap.L().Info("atlas: load complete",
		zap.String("load_id", loadID.String()),
		zap.Int("counties", len(counties)),
		zap.Int("states", len(states)),
		zap.Duration("elapsed", finished.Sub(started)),
	)
	return nil
}

// fetchPayload retrieves one dataset document, going through the store
// cache when configured.
func (r *Repository) fetchPayload(ctx context.Context, name, url string) ([]byte, error) {
	if r.store == nil {
		rc, err := r.dl.Download(ctx, url)
		if err != nil {
			return nil, err
		}
		defer rc.Close() //nolint:errcheck
		return io.ReadAll(rc)
	}

	var etag string
	cached, err := r.store.GetPayload(ctx, name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if cached != nil {
		etag = cached.ETag
	}

	rc, newETag, changed, err := r.dl.DownloadIfChanged(ctx, url, etag)
	if err != nil {
		return nil, err
	}
	if !changed {
		zap.L().Debug("atlas: dataset unchanged, using cache", zap.String("dataset", name))
		return cached.Data, nil
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	if putErr := r.store.PutPayload(ctx, store.Payload{
		Name: name, ETag: newETag, Data: data, FetchedAt: time.Now().UTC(),
	}); putErr != nil {
		// Cache write failure degrades to refetching next time.
		zap.L().Warn("atlas: payload cache write failed",
			zap.String("dataset", name), zap.Error(putErr))
	}
	return data, nil
}

// loadRecords fetches and decodes one attribute dataset.
func (r *Repository) loadRecords(ctx context.Context, name, url string, g model.Granularity) ([]*model.Region, error) {
	data, err := r.fetchPayload(ctx, name, url)
	if err != nil {
		return nil, eris.Wrapf(err, "atlas: load %s", name)
	}

	recCh, errCh := fetcher.DecodeJSONArray[record](ctx, bytes.NewReader(data))

	seen := make(map[string]bool)
	var regions []*model.Region
	for rec := range recCh {
		if !validGEOID(rec.GEOID, g) {
			zap.L().Warn("atlas: record with malformed identifier skipped",
				zap.String("dataset", name), zap.String("geoid", rec.GEOID))
			continue
		}
		if seen[rec.GEOID] {
			zap.L().Warn("atlas: duplicate identifier, keeping first",
				zap.String("dataset", name), zap.String("geoid", rec.GEOID))
			continue
		}
		seen[rec.GEOID] = true
		regions = append(regions, rec.toRegion(g))
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "atlas: load %s", name)
	}
	if len(regions) == 0 {
		return nil, eris.Errorf("atlas: load %s: no records", name)
	}
	return regions, nil
}

// loadBoundaries fetches and decodes one boundary dataset.
func (r *Repository) loadBoundaries(ctx context.Context, name, url string) ([]geomap.Boundary, error) {
	data, err := r.fetchPayload(ctx, name, url)
	if err != nil {
		return nil, eris.Wrapf(err, "atlas: load %s", name)
	}
	boundaries, err := geomap.DecodeFeatures(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrapf(err, "atlas: load %s", name)
	}
	return boundaries, nil
}

// structuralCheck warns about missing optional fields on a sample
// record. It never fails the load.
func structuralCheck(name string, regions []*model.Region) {
	if len(regions) == 0 {
		return
	}
	sample := regions[0]
	if sample.Name == "" {
		zap.L().Warn("atlas: sample record has no name", zap.String("dataset", name))
	}
	for _, m := range []model.Metric{model.MetricPopulation, model.MetricHousingDensity, model.MetricFiberPenetration} {
		if _, ok := sample.Metric(m); !ok {
			zap.L().Warn("atlas: sample record missing metric",
				zap.String("dataset", name), zap.String("metric", string(m)))
		}
	}
}

// audit records the load attempt; audit failures only warn.
func (r *Repository) audit(ctx context.Context, id uuid.UUID, started, finished time.Time, loadErr error) {
	if r.store == nil {
		return
	}
	rec := store.LoadRecord{
		ID: id, Status: "ok", Datasets: 4,
		StartedAt: started, FinishedAt: finished,
	}
	if loadErr != nil {
		rec.Status = "failed"
		rec.Error = loadErr.Error()
		rec.Datasets = 0
	}
	if err := r.store.RecordLoad(ctx, rec); err != nil {
		zap.L().Warn("atlas: load audit write failed", zap.Error(err))
	}
}

// Loaded reports whether a complete snapshot is available.
func (r *Repository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap != nil
}

// LastError returns the error of the most recent failed load, or nil
// after a successful load.
func (r *Repository) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// LoadedAt returns when the current snapshot was loaded.
func (r *Repository) LoadedAt() (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return time.Time{}, false
	}
	return r.snap.loadedAt, true
}

// LoadID returns the identifier of the load that produced the current
// snapshot.
func (r *Repository) LoadID() (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return uuid.Nil, false
	}
	return r.snap.loadID, true
}

// Region looks up one region by identifier. Unknown identifiers return
// absence, never an error.
func (r *Repository) Region(g model.Granularity, geoid string) (*model.Region, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return nil, false
	}
	reg, ok := r.snap.regions[g][geoid]
	return reg, ok
}

// Regions returns all regions at the granularity, ordered by GEOID.
func (r *Repository) Regions(g model.Granularity) []*model.Region {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return nil
	}
	src := r.snap.sorted[g]
	out := make([]*model.Region, len(src))
	copy(out, src)
	return out
}

// Boundaries returns the boundary set for the granularity.
func (r *Repository) Boundaries(g model.Granularity) []geomap.Boundary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return nil
	}
	return r.snap.boundaries[g]
}

func indexByGEOID(regions []*model.Region) map[string]*model.Region {
	idx := make(map[string]*model.Region, len(regions))
	for _, reg := range regions {
		idx[reg.GEOID] = reg
	}
	return idx
}

func sortByGEOID(regions []*model.Region) []*model.Region {
	out := make([]*model.Region, len(regions))
	copy(out, regions)
	sort.Slice(out, func(i, j int) bool { return out[i].GEOID < out[j].GEOID })
	return out
}
