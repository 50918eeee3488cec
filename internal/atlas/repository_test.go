package atlas

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fiber-atlas/internal/fetcher"
	"github.com/sells-group/fiber-atlas/internal/model"
	"github.com/sells-group/fiber-atlas/internal/store"
)

func TestLoad_Success(t *testing.T) {
	repo := newTestRepository(t, t.TempDir())
	ctx := context.Background()

	assert.False(t, repo.Loaded())
	require.NoError(t, repo.Load(ctx))
	assert.True(t, repo.Loaded())
	assert.NoError(t, repo.LastError())

	counties := repo.Regions(model.GranularityRegional)
	assert.Len(t, counties, 62)
	// Sorted by GEOID.
	assert.Equal(t, "36001", counties[0].GEOID)
	assert.Equal(t, "36123", counties[len(counties)-1].GEOID)

	manhattan, ok := repo.Region(model.GranularityRegional, "36061")
	require.True(t, ok)
	assert.Equal(t, "New York", manhattan.Name)
	pop, ok := manhattan.Metric(model.MetricPopulation)
	require.True(t, ok)
	assert.Equal(t, float64(1_628_701), pop)
	assert.True(t, manhattan.UrbanCore)

	states := repo.Regions(model.GranularityNational)
	assert.Len(t, states, 3)

	assert.Len(t, repo.Boundaries(model.GranularityRegional), 62)
	assert.Len(t, repo.Boundaries(model.GranularityNational), 3)

	id, ok := repo.LoadID()
	assert.True(t, ok)
	assert.NotEqual(t, uuid.Nil, id)
	_, ok = repo.LoadedAt()
	assert.True(t, ok)
}

func TestLookup_BeforeLoad(t *testing.T) {
	repo := newTestRepository(t, t.TempDir())

	_, ok := repo.Region(model.GranularityRegional, "36061")
	assert.False(t, ok)
	assert.Nil(t, repo.Regions(model.GranularityRegional))
	assert.Nil(t, repo.Boundaries(model.GranularityNational))
}

func TestLookup_UnknownIsAbsence(t *testing.T) {
	repo := newTestRepository(t, t.TempDir())
	require.NoError(t, repo.Load(context.Background()))

	_, ok := repo.Region(model.GranularityRegional, "99999")
	assert.False(t, ok)
	_, ok = repo.Region(model.GranularityNational, "zz")
	assert.False(t, ok)
}

func TestLoad_FailureNamesDataset(t *testing.T) {
	dir := t.TempDir()
	sources := writeFixtures(t, dir)
	sources.CountyBoundaries = filepath.Join(dir, "missing.json")
	repo := New(sources, fetcher.NewDispatcher(fetcher.HTTPOptions{}), nil)

	err := repo.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), DatasetCountyBoundaries)
	assert.False(t, repo.Loaded())
	assert.Error(t, repo.LastError())
}

func TestLoad_FailureRetainsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	sources := writeFixtures(t, dir)
	repo := New(sources, fetcher.NewDispatcher(fetcher.HTTPOptions{}), nil)
	ctx := context.Background()

	require.NoError(t, repo.Load(ctx))
	firstID, _ := repo.LoadID()

	// Corrupt one dataset and reload: the load fails but the previous
	// snapshot stays fully readable.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "states.json"), []byte("{broken"), 0o644))
	err := repo.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), DatasetStates)

	assert.True(t, repo.Loaded())
	assert.Error(t, repo.LastError())
	assert.Len(t, repo.Regions(model.GranularityRegional), 62)
	curID, _ := repo.LoadID()
	assert.Equal(t, firstID, curID)

	// Repairing the dataset clears the error on the next load.
	writeFixtures(t, dir)
	require.NoError(t, repo.Load(ctx))
	assert.NoError(t, repo.LastError())
	newID, _ := repo.LoadID()
	assert.NotEqual(t, firstID, newID)
}

func TestLoad_SkipsMalformedAndDuplicateRecords(t *testing.T) {
	dir := t.TempDir()
	sources := writeFixtures(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "states.json"), []byte(`[
		{"geoid": "36", "name": "New York", "population": 1, "housing_density": 1},
		{"geoid": "36", "name": "Duplicate", "population": 2, "housing_density": 2},
		{"geoid": "bad", "name": "Malformed", "population": 3, "housing_density": 3}
	]`), 0o644))
	repo := New(sources, fetcher.NewDispatcher(fetcher.HTTPOptions{}), nil)

	require.NoError(t, repo.Load(context.Background()))

	states := repo.Regions(model.GranularityNational)
	require.Len(t, states, 1)
	assert.Equal(t, "New York", states[0].Name)
}

func TestLoad_WithStoreCachesPayloads(t *testing.T) {
	dir := t.TempDir()
	sources := writeFixtures(t, dir)

	st, err := store.NewSQLite(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	defer st.Close()

	repo := New(sources, fetcher.NewDispatcher(fetcher.HTTPOptions{}), st)
	ctx := context.Background()

	require.NoError(t, repo.Load(ctx))

	// Payloads cached with freshness tokens.
	for _, name := range []string{DatasetCounties, DatasetCountyBoundaries, DatasetStates, DatasetStateBoundaries} {
		p, err := st.GetPayload(ctx, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, p.ETag, name)
		assert.NotEmpty(t, p.Data, name)
	}

	rec, err := st.LastLoad(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", rec.Status)
	assert.Equal(t, 4, rec.Datasets)

	// Second load succeeds off the unchanged files.
	require.NoError(t, repo.Load(ctx))

	// A failed load is audited as such.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "counties.json"), []byte("nope"), 0o644))
	require.Error(t, repo.Load(ctx))
	rec, err = st.LastLoad(ctx)
	require.NoError(t, err)
	assert.Equal(t, "failed", rec.Status)
	assert.Contains(t, rec.Error, DatasetCounties)
}
