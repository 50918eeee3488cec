package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Querier is the subset of pgxpool.Pool the store uses. pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool, for deployments where
// multiple atlas instances share one dataset cache.
type PostgresStore struct {
	pool    Querier
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromQuerier wraps an existing querier (used by tests).
func NewPostgresFromQuerier(q Querier) *PostgresStore {
	return &PostgresStore{pool: q}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS dataset_payloads (
	name       TEXT PRIMARY KEY,
	etag       TEXT NOT NULL DEFAULT '',
	data       BYTEA NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS load_records (
	id          UUID PRIMARY KEY,
	status      TEXT NOT NULL,
	error       TEXT,
	datasets    INTEGER NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_load_records_finished ON load_records(finished_at);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// GetPayload returns the cached payload for a dataset name.
func (s *PostgresStore) GetPayload(ctx context.Context, name string) (*Payload, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT name, etag, data, fetched_at FROM dataset_payloads WHERE name = $1`, name)

	var p Payload
	if err := row.Scan(&p.Name, &p.ETag, &p.Data, &p.FetchedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get payload %s", name)
	}
	return &p, nil
}

// PutPayload upserts the cached payload for a dataset name.
func (s *PostgresStore) PutPayload(ctx context.Context, p Payload) error {
	if p.FetchedAt.IsZero() {
		p.FetchedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO dataset_payloads (name, etag, data, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			etag = EXCLUDED.etag,
			data = EXCLUDED.data,
			fetched_at = EXCLUDED.fetched_at`,
		p.Name, p.ETag, p.Data, p.FetchedAt)
	if err != nil {
		return eris.Wrapf(err, "postgres: put payload %s", p.Name)
	}
	return nil
}

// RecordLoad inserts one load-attempt audit record.
func (s *PostgresStore) RecordLoad(ctx context.Context, rec LoadRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO load_records (id, status, error, datasets, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Status, rec.Error, rec.Datasets, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return eris.Wrap(err, "postgres: record load")
	}
	return nil
}

// LastLoad returns the most recently finished load record.
func (s *PostgresStore) LastLoad(ctx context.Context) (*LoadRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, status, error, datasets, started_at, finished_at
		FROM load_records ORDER BY finished_at DESC LIMIT 1`)

	var rec LoadRecord
	if err := row.Scan(&rec.ID, &rec.Status, &rec.Error, &rec.Datasets, &rec.StartedAt, &rec.FinishedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: last load")
	}
	return &rec, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
