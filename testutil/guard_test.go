package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGoFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "a.go", "package a\n\nimport _ \"seriescore/internal/blob\"\n")
	writeGoFile(t, dir, "b.go", "package a\n\nimport _ \"fmt\"\n")
	writeGoFile(t, dir, "a_test.go", "package a\n\nimport _ \"seriescore/internal/blob\"\n")

	viols, err := directImportViolations(dir, BlobImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 {
		t.Fatalf("expected one violation (test files skipped), got %v", viols)
	}
	if viols[0] != "seriescore/internal/blob (in a.go)" {
		t.Fatalf("violation %q", viols[0])
	}
}

func TestPredicates(t *testing.T) {
	if !BlobImportForbidden("seriescore/internal/blob") {
		t.Fatal("blob package must match")
	}
	if BlobImportForbidden("seriescore/internal/artifact") {
		t.Fatal("artifact package must not match")
	}
	if !InternalImportForbidden("seriescore/internal/core") {
		t.Fatal("internal path must match")
	}
	if InternalImportForbidden("seriescore/pkg/domain") {
		t.Fatal("domain path must not match")
	}
}
