package postgres

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"datamesh/internal/core"
	"datamesh/pkg/product"
)

// The archive speaks plain SQL with $1 placeholders, which SQLite also
// accepts, so tests swap the opener for an on-disk SQLite database instead of
// requiring a Postgres server.
func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.Open("sqlite", path)
	})
	t.Cleanup(restore)

	archive, err := NewArchive(context.Background(), "")
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}
	t.Cleanup(func() { _ = archive.Close() })
	return archive
}

func sampleSnapshot(t *testing.T, name string) core.Snapshot {
	t.Helper()
	meta := product.Metadata{Name: name, Version: "2.0.0", Domain: "sales", Owner: "sales-team@example.com"}
	schema := product.Schema{
		Fields:     map[string]product.FieldType{"transaction_id": product.FieldString, "amount": product.FieldFloat},
		PrimaryKey: "transaction_id",
	}
	store := core.New(meta, schema, product.SLA{})
	if _, err := store.Add(context.Background(), product.Record{"transaction_id": "TXN001", "amount": 99.5}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store.Snapshot()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	if err := archive.Save(ctx, sampleSnapshot(t, "sales-transactions")); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap, ok, err := archive.Load(ctx, "sales-transactions")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if snap.Metadata.Version != "2.0.0" || len(snap.Records) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap.Metadata)
	}
	if snap.Records[0]["amount"] != 99.5 {
		t.Fatalf("record payload lost: %v", snap.Records[0])
	}
}

func TestSaveUpsertsAndNames(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	first := sampleSnapshot(t, "sales-transactions")
	if err := archive.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	first.Metadata.Version = "2.1.0"
	if err := archive.Save(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	snap, ok, err := archive.Load(ctx, "sales-transactions")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if snap.Metadata.Version != "2.1.0" {
		t.Fatalf("upsert lost: %+v", snap.Metadata)
	}

	names, err := archive.Names(ctx)
	if err != nil || len(names) != 1 || names[0] != "sales-transactions" {
		t.Fatalf("names: %v err=%v", names, err)
	}
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	archive := newTestArchive(t)
	_, ok, err := archive.Load(context.Background(), "missing")
	if err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}
