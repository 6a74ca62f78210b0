// Package postgres stores documents in PostgreSQL via pgx.
package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"nodegraph/store"
)

const backend = "postgres"

// PGStore implements store.Store using PostgreSQL via pgx.
type PGStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// New creates a new PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db, now: time.Now}
}

var _ store.Store = (*PGStore)(nil)
