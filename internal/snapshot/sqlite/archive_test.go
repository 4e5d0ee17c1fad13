package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"datamesh/internal/core"
	"datamesh/pkg/product"
)

func sampleSnapshot(t *testing.T, name string) core.Snapshot {
	t.Helper()
	meta := product.Metadata{Name: name, Version: "1.0.0", Domain: "warehouse", Owner: "ops@example.com"}
	schema := product.Schema{
		Fields:     map[string]product.FieldType{"id": product.FieldString, "qty": product.FieldInteger},
		PrimaryKey: "id",
	}
	store := core.New(meta, schema, product.SLA{Availability: 99.9})
	for _, rec := range []product.Record{{"id": "a", "qty": 1}, {"id": "b", "qty": 2}} {
		if _, err := store.Add(context.Background(), rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	store.Query(nil)
	return store.Snapshot()
}

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	archive, err := NewArchive(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}
	t.Cleanup(func() { _ = archive.Close() })
	return archive
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	if err := archive.Save(ctx, sampleSnapshot(t, "inventory")); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, ok, err := archive.Load(ctx, "inventory")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if snap.Metadata.Name != "inventory" || len(snap.Records) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap.Metadata)
	}
	if len(snap.AccessLog) != 1 || snap.AccessLog[0].Operation != product.OperationQuery {
		t.Fatalf("access log lost: %+v", snap.AccessLog)
	}
	if snap.Schema.Fields["qty"] != product.FieldInteger {
		t.Fatalf("schema lost: %+v", snap.Schema)
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)

	first := sampleSnapshot(t, "inventory")
	if err := archive.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := first
	second.Records = second.Records[:1]
	if err := archive.Save(ctx, second); err != nil {
		t.Fatalf("save again: %v", err)
	}

	snap, ok, err := archive.Load(ctx, "inventory")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if len(snap.Records) != 1 {
		t.Fatalf("expected overwritten snapshot, got %d records", len(snap.Records))
	}
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	archive := newTestArchive(t)
	_, ok, err := archive.Load(context.Background(), "missing")
	if err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestSaveRejectsAnonymousSnapshot(t *testing.T) {
	archive := newTestArchive(t)
	if err := archive.Save(context.Background(), core.Snapshot{}); err == nil {
		t.Fatal("snapshot without product name accepted")
	}
}

func TestNamesAndDelete(t *testing.T) {
	ctx := context.Background()
	archive := newTestArchive(t)
	for _, name := range []string{"sales", "customers"} {
		if err := archive.Save(ctx, sampleSnapshot(t, name)); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	names, err := archive.Names(ctx)
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) != 2 || names[0] != "customers" || names[1] != "sales" {
		t.Fatalf("unexpected names %v", names)
	}

	if ok, err := archive.Delete(ctx, "sales"); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if ok, err := archive.Delete(ctx, "sales"); err != nil || ok {
		t.Fatalf("second delete: ok=%v err=%v", ok, err)
	}
	if names, _ = archive.Names(ctx); len(names) != 1 {
		t.Fatalf("unexpected names after delete %v", names)
	}
}
