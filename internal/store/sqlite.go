package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS dataset_payloads (
	name       TEXT PRIMARY KEY,
	etag       TEXT NOT NULL DEFAULT '',
	data       BLOB NOT NULL,
	fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS load_records (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	error       TEXT,
	datasets    INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_load_records_finished ON load_records(finished_at);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// GetPayload returns the cached payload for a dataset name.
func (s *SQLiteStore) GetPayload(ctx context.Context, name string) (*Payload, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, etag, data, fetched_at FROM dataset_payloads WHERE name = ?`, name)

	var p Payload
	var fetchedAt string
	if err := row.Scan(&p.Name, &p.ETag, &p.Data, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get payload %s", name)
	}

	t, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse fetched_at for %s", name)
	}
	p.FetchedAt = t
	return &p, nil
}

// PutPayload upserts the cached payload for a dataset name.
func (s *SQLiteStore) PutPayload(ctx context.Context, p Payload) error {
	if p.FetchedAt.IsZero() {
		p.FetchedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dataset_payloads (name, etag, data, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			etag = excluded.etag,
			data = excluded.data,
			fetched_at = excluded.fetched_at`,
		p.Name, p.ETag, p.Data, p.FetchedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return eris.Wrapf(err, "sqlite: put payload %s", p.Name)
	}
	return nil
}

// RecordLoad inserts one load-attempt audit record.
func (s *SQLiteStore) RecordLoad(ctx context.Context, rec LoadRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO load_records (id, status, error, datasets, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Status, rec.Error, rec.Datasets,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return eris.Wrap(err, "sqlite: record load")
	}
	return nil
}

// LastLoad returns the most recently finished load record.
func (s *SQLiteStore) LastLoad(ctx context.Context) (*LoadRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, error, datasets, started_at, finished_at
		FROM load_records ORDER BY rowid DESC LIMIT 1`)

	var rec LoadRecord
	var id, startedAt, finishedAt string
	var errMsg sql.NullString
	if err := row.Scan(&id, &rec.Status, &errMsg, &rec.Datasets, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "sqlite: last load")
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: parse load id")
	}
	rec.ID = parsed
	rec.Error = errMsg.String

	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, eris.Wrap(err, "sqlite: parse started_at")
	}
	if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return nil, eris.Wrap(err, "sqlite: parse finished_at")
	}
	return &rec, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
