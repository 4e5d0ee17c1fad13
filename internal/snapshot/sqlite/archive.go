// Package sqlite archives point-in-time data product snapshots in a local
// SQLite database. Each product occupies one row of a state table keyed by
// product name, with the snapshot serialized as a JSON payload.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"datamesh/internal/core"
)

// Archive stores product snapshots in a single SQLite file.
type Archive struct {
	db   *sql.DB
	path string
}

// NewArchive opens (creating if needed) a snapshot archive at path.
func NewArchive(path string) (*Archive, error) {
	if path == "" {
		path = "datamesh.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Archive{db: db, path: path}, nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error { return a.db.Close() }

// Path returns the archive file location.
func (a *Archive) Path() string { return a.path }

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
		`INSERT INTO state (bucket, payload) VALUES (?, ?)
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
		`SELECT payload FROM state WHERE bucket = ?`, name).Scan(&payload)
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

// Delete removes an archived snapshot, reporting whether it existed.
func (a *Archive) Delete(ctx context.Context, name string) (bool, error) {
	res, err := a.db.ExecContext(ctx, `DELETE FROM state WHERE bucket = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
