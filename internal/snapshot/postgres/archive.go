// Package postgres archives point-in-time data product snapshots in a
// Postgres state table mirroring the SQLite archive semantics.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"datamesh/internal/core"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/datamesh?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the sql.Open function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

// Archive stores product snapshots in a Postgres state table.
type Archive struct {
	db *sql.DB
}

// NewArchive connects to Postgres using the provided DSN (falls back to a
// local default) and ensures the state table exists.
func NewArchive(ctx context.Context, dsn string) (*Archive, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error { return a.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (a *Archive) DB() *sql.DB { return a.db }

// Save upserts the snapshot under its product name.
func (a *Archive) Save(ctx context.Context, snap core.Snapshot) error {
	name := snap.Metadata.Name
	if name == "" {
		return fmt.Errorf("snapshot has no product name")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := a.db.ExecContext(ctx,
		`INSERT INTO state (bucket, payload) VALUES ($1, $2)
		 ON CONFLICT (bucket) DO UPDATE SET payload = excluded.payload`,
		name, payload); err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return nil
}

// Load returns the archived snapshot for the product, with ok=false when no
// snapshot exists.
func (a *Archive) Load(ctx context.Context, name string) (core.Snapshot, bool, error) {
	var payload []byte
	err := a.db.QueryRowContext(ctx,
		`SELECT payload FROM state WHERE bucket = $1`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Snapshot{}, false, nil
	}
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return snap, true, nil
}

// Names lists the archived product names in lexical order.
func (a *Archive) Names(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT bucket FROM state ORDER BY bucket`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan snapshot name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
