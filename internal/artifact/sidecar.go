package artifact

import (
	"fmt"
	"strings"
)

// SidecarName returns the sidecar filename for an artifact filename. The
// artifact's extension is replaced, so ordered_series_manifest.json pairs
// with ordered_series_manifest.sha256.
func SidecarName(name string) string {
	return strings.TrimSuffix(name, ".json") + ".sha256"
}

// FormatSidecar renders the sidecar content for an artifact:
// "<sha256-hex>  <filename>\n" (two spaces, sha256sum convention).
func FormatSidecar(hash, filename string) string {
	return fmt.Sprintf("%s  %s\n", hash, filename)
}

// ParseSidecar extracts the hash and filename from sidecar content.
func ParseSidecar(content string) (hash, filename string, err error) {
	line := strings.TrimRight(content, "\n")
	hash, filename, ok := strings.Cut(line, "  ")
	if !ok || len(hash) != 64 || filename == "" {
		return "", "", fmt.Errorf("malformed sidecar content %q", content)
	}
	return hash, filename, nil
}
