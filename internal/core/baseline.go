package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"seriescore/pkg/domain"
)

// SOP class of encapsulated PDF documents.
const sopClassEncapsulatedPDF = "1.2.840.10008.5.1.4.1.1.104.1"

// BaselineManifestBuilder assembles extractor entries into a hash-sealed
// baseline manifest. The baseline records discovery order as observed; it
// asserts nothing about canonical order.
type BaselineManifestBuilder struct {
	scriptVersion string
}

// NewBaselineManifestBuilder constructs a builder stamping manifests with
// the supplied script version.
func NewBaselineManifestBuilder(scriptVersion string) *BaselineManifestBuilder {
	return &BaselineManifestBuilder{scriptVersion: scriptVersion}
}

// Build validates the entries and assembles the baseline manifest. Entry
// order is preserved exactly as supplied. Entries failing validation abort
// the build: a baseline that silently dropped records would defeat the
// completeness proof downstream.
func (b *BaselineManifestBuilder) Build(manifestID, sourceDir string, capturedAt time.Time, entries []domain.Entry) (domain.BaselineManifest, error) {
	if manifestID == "" {
		return domain.BaselineManifest{}, fmt.Errorf("baseline build: empty manifest id")
	}
	seen := make(map[string]string, len(entries))
	seriesSeen := make(map[string]struct{})
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return domain.BaselineManifest{}, fmt.Errorf("baseline build: entry %d: %w", i, err)
		}
		if prior, ok := seen[e.InstanceID]; ok && prior == e.SeriesID {
			return domain.BaselineManifest{}, fmt.Errorf("baseline build: duplicate instance %s in series %s", e.InstanceID, e.SeriesID)
		}
		seen[e.InstanceID] = e.SeriesID
		seriesSeen[e.SeriesID] = struct{}{}
	}

	manifest := domain.BaselineManifest{
		ManifestID:       manifestID,
		CaptureTimestamp: capturedAt.UTC().Format(time.RFC3339Nano),
		SourceDirectory:  sourceDir,
		TotalFiles:       len(entries),
		TotalSeries:      len(seriesSeen),
		ModalityFlags:    collectModalityFlags(entries),
		Entries:          append([]domain.Entry(nil), entries...),
		ScriptVersion:    b.scriptVersion,
	}
	return manifest, nil
}

// collectModalityFlags scans entries for modality conditions that downstream
// consumers display as advisories. Flags never influence ordering.
func collectModalityFlags(entries []domain.Entry) domain.ModalityFlags {
	flags := domain.ModalityFlags{ModalitiesFound: []string{}}
	found := make(map[string]struct{})
	for _, e := range entries {
		modality := strings.ToUpper(strings.TrimSpace(e.Modality))
		if modality != "" {
			found[modality] = struct{}{}
		}
		multiframe := e.IsMultiframe || (e.NumberOfFrames != nil && *e.NumberOfFrames > 1)
		switch modality {
		case "US":
			if multiframe {
				flags.USMultiframePresent = true
			}
		case "CT", "MR":
			if multiframe {
				flags.CTMRCinePresent = true
			}
		}
		if e.SOPClassUID == sopClassEncapsulatedPDF || modality == "DOC" {
			flags.EncapsulatedPDFPresent = true
		}
	}
	for m := range found {
		flags.ModalitiesFound = append(flags.ModalitiesFound, m)
	}
	sort.Strings(flags.ModalitiesFound)
	return flags
}
