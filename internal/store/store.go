// Package store persists fetched dataset payloads and a load-attempt
// audit trail, so repeat loads can skip unchanged downloads and the
// status surfaces can report the last load outcome.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a payload or record does not exist.
var ErrNotFound = eris.New("store: not found")

// Payload is a cached dataset document with its freshness token.
type Payload struct {
	Name      string    `json:"name"`
	ETag      string    `json:"etag,omitempty"`
	Data      []byte    `json:"-"`
	FetchedAt time.Time `json:"fetched_at"`
}

// LoadRecord is the audit entry for one load attempt.
type LoadRecord struct {
	ID         uuid.UUID `json:"id"`
	Status     string    `json:"status"` // "ok" or "failed"
	Error      string    `json:"error,omitempty"`
	Datasets   int       `json:"datasets"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store defines the persistence interface for dataset caching.
type Store interface {
	// Payloads
	GetPayload(ctx context.Context, name string) (*Payload, error)
	PutPayload(ctx context.Context, p Payload) error

	// Load audit
	RecordLoad(ctx context.Context, rec LoadRecord) error
	LastLoad(ctx context.Context) (*LoadRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
