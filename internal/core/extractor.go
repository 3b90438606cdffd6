package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"seriescore/pkg/domain"
)

// FileEntryExtractor reads pre-extracted entry records from a JSON file. The
// file holds either a bare array of entries or an object with an "entries"
// key, which lets a prior capture manifest double as an extractor source.
// Tag extraction from source images happens upstream of this program; this
// extractor is the boundary where those records enter the pipeline.
type FileEntryExtractor struct{}

// NewFileEntryExtractor constructs a file-backed extractor.
func NewFileEntryExtractor() *FileEntryExtractor { return &FileEntryExtractor{} }

// Extract implements domain.EntryExtractor.
func (x *FileEntryExtractor) Extract(ctx context.Context, source string) ([]domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("extract entries: %w", err)
	}

	var entries []domain.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		var wrapped struct {
			Entries []domain.Entry `json:"entries"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("extract entries: decode %s: %w", source, err)
		}
		entries = wrapped.Entries
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("extract entries: %s contains no entries", source)
	}
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, fmt.Errorf("extract entries: entry %d: %w", i, err)
		}
	}
	return entries, nil
}
