package blob

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyArtifactLayerImportsBlob ensures the pipeline depends on blob
// storage only through the artifact store. The ordering and verification
// packages must stay storage-agnostic; only the artifact layer and the
// command wiring may reach for blob drivers directly.
func TestOnlyArtifactLayerImportsBlob(t *testing.T) {
	blobPath := "seriescore/internal/blob"
	allowedPrefixes := []string{
		"seriescore/internal/blob",
		"seriescore/internal/artifact",
		"seriescore/cmd/",
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "seriescore/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})

	for _, pkg := range pkgs {
		if isAllowed(pkg.PkgPath, allowedPrefixes) {
			continue
		}
		// Test binaries and test-augmented variants may wire memory
		// drivers directly.
		if strings.Contains(pkg.ID, ".test") {
			continue
		}
		for importPath := range pkg.Imports {
			if importPath == blobPath || strings.HasPrefix(importPath, blobPath+"/") {
				pos := filepath.Join(pkg.PkgPath, "...")
				seen[pos+": "+importPath] = struct{}{}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of blob package: %s", v)
		}
		t.Fatalf("found %d forbidden imports of blob packages", len(violations))
	}
}

func isAllowed(pkgPath string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if pkgPath == strings.TrimSuffix(prefix, "/") || strings.HasPrefix(pkgPath, prefix) {
			return true
		}
	}
	return false
}
