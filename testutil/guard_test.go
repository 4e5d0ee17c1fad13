package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolationsFindsForbiddenImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n\nimport (\n\t\"fmt\"\n\t\"datamesh/internal/core\"\n)\n\nvar _ = fmt.Sprint\n")
	writeFile(t, dir, "a_test.go", "package a\n\nimport \"datamesh/internal/core\"\n")

	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 {
		t.Fatalf("expected 1 violation (test files skipped), got %v", viols)
	}
}

func TestDirectImportViolationsCleanPackage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.go", "package b\n\nimport \"strings\"\n\nvar _ = strings.TrimSpace\n")
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 0 {
		t.Fatalf("unexpected violations %v", viols)
	}
}

func TestPredicates(t *testing.T) {
	if !InternalImportForbidden("datamesh/internal/core") {
		t.Fatal("internal import not matched")
	}
	if InternalImportForbidden("datamesh/pkg/product") {
		t.Fatal("pkg import wrongly matched")
	}
	if !EnrichImportForbidden("datamesh/pkg/enrich") {
		t.Fatal("enrich import not matched")
	}
	if EnrichImportForbidden("datamesh/pkg/sales") {
		t.Fatal("sales import wrongly matched")
	}
}
