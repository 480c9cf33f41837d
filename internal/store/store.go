// Package store is the local run-history layer. Every collection run is
// persisted as a row carrying the run metadata plus the full inventory JSON
// blob, so past reports can be re-rendered without touching the cluster.
package store

import (
	"context"
	"database/sql"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/sanops/asbuilt/internal/store/migrations"
)

// NewDB opens a DuckDB database at the given path, ":memory:" for tests.
func NewDB(path string) (*sql.DB, error) {
	return sql.Open("duckdb", path)
}

// Store provides access to all storage repositories.
type Store struct {
	db   *sql.DB
	runs *RunStore
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:   db,
		runs: NewRunStore(db),
	}
}

// Migrate brings the schema up to date. Call once before first use.
func (s *Store) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, s.db)
}

func (s *Store) Runs() *RunStore {
	return s.runs
}

func (s *Store) Close() error {
	return s.db.Close()
}
