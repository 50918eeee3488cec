package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fiber-atlas/internal/atlas"
	"github.com/sells-group/fiber-atlas/internal/colorscale"
	"github.com/sells-group/fiber-atlas/internal/fetcher"
	"github.com/sells-group/fiber-atlas/internal/store"
	"github.com/sells-group/fiber-atlas/internal/viewstate"
)

// atlasEnv holds the initialized store, dataset repository, scale
// registry, and view-state coordinator shared by the serve/load/status
// commands.
type atlasEnv struct {
	Store  store.Store // nil with the "none" driver
	Atlas  *atlas.Repository
	Scales *colorscale.Registry
	View   *viewstate.Coordinator
}

// Close releases resources held by the environment.
func (e *atlasEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "fiber-atlas.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "none":
		return nil, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initAtlas sets up the store, fetch dispatcher, scale registry, and
// coordinator. Callers should defer env.Close().
func initAtlas(ctx context.Context, mode string) (*atlasEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	dispatcher := fetcher.NewDispatcher(fetcher.HTTPOptions{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Fetch.MaxRetries,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})

	repo := atlas.NewFromDispatcher(atlas.Sources{
		Counties:         cfg.Datasets.Counties,
		CountyBoundaries: cfg.Datasets.CountyBoundaries,
		States:           cfg.Datasets.States,
		StateBoundaries:  cfg.Datasets.StateBoundaries,
	}, dispatcher, st)

	scales := colorscale.NewRegistry()
	if cfg.Scales.File != "" {
		if err := scales.LoadOverrides(cfg.Scales.File); err != nil {
			if st != nil {
				_ = st.Close()
			}
			return nil, err
		}
		zap.L().Info("scale overrides loaded", zap.String("file", cfg.Scales.File))
	}

	return &atlasEnv{
		Store:  st,
		Atlas:  repo,
		Scales: scales,
		View:   viewstate.New(repo, scales, cfg.View.RegionalState),
	}, nil
}
