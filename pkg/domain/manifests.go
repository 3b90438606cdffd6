package domain

// ModalityFlags records modality-specific observations made while the
// baseline was captured. They are advisory and never influence ordering.
type ModalityFlags struct {
	USMultiframePresent    bool     `json:"us_multiframe_present"`
	CTMRCinePresent        bool     `json:"ct_mr_cine_present"`
	EncapsulatedPDFPresent bool     `json:"encapsulated_pdf_present"`
	ModalitiesFound        []string `json:"modalities_found"`
}

// BaselineManifest is the hash-sealed capture of every entry in a run,
// grouped implicitly by series. Created once per run, never mutated.
//
// ContentHash covers the canonical JSON serialization of the manifest and is
// carried alongside the document (sidecar file and successor artifacts), not
// embedded in the hashed bytes themselves.
type BaselineManifest struct {
	ManifestID       string        `json:"manifest_id"`
	CaptureTimestamp string        `json:"capture_timestamp"`
	SourceDirectory  string        `json:"source_directory"`
	TotalFiles       int           `json:"total_files"`
	TotalSeries      int           `json:"total_series"`
	ModalityFlags    ModalityFlags `json:"modality_flags"`
	Entries          []Entry       `json:"entries"`
	ScriptVersion    string        `json:"script_version"`

	ContentHash string `json:"-"`
}

// OrderedEntry is a baseline entry plus its canonical position.
// OrderedIndex is 1-based and unique within each series.
type OrderedEntry struct {
	Entry
	OrderedIndex      int `json:"ordered_index"`
	OriginalFileIndex int `json:"original_file_index"`
}

// OrderedManifest is the canonical per-series ordering of a baseline
// manifest. Its instance-id set equals the baseline's, per series and
// overall; the DiffVerifier proves this independently.
type OrderedManifest struct {
	ManifestID           string         `json:"manifest_id"`
	GenerationTimestamp  string         `json:"generation_timestamp"`
	BaselineManifestID   string         `json:"baseline_manifest_id"`
	BaselineManifestHash string         `json:"baseline_manifest_hash"`
	OrderingPrecedence   []string       `json:"ordering_precedence"`
	TotalEntries         int            `json:"total_entries"`
	TotalSeries          int            `json:"total_series"`
	Entries              []OrderedEntry `json:"entries"`
	ScriptVersion        string         `json:"script_version"`

	ContentHash string `json:"-"`
}

// SeriesEntries returns the manifest entries grouped by series id in first
// occurrence order. The returned slices share backing arrays with the
// manifest and must be treated as read-only.
func (m BaselineManifest) SeriesEntries() ([]string, map[string][]Entry) {
	ids := make([]string, 0)
	byID := make(map[string][]Entry)
	for _, e := range m.Entries {
		if _, ok := byID[e.SeriesID]; !ok {
			ids = append(ids, e.SeriesID)
		}
		byID[e.SeriesID] = append(byID[e.SeriesID], e)
	}
	return ids, byID
}

// SeriesEntries groups ordered entries by series id in first occurrence order.
func (m OrderedManifest) SeriesEntries() ([]string, map[string][]OrderedEntry) {
	ids := make([]string, 0)
	byID := make(map[string][]OrderedEntry)
	for _, e := range m.Entries {
		if _, ok := byID[e.SeriesID]; !ok {
			ids = append(ids, e.SeriesID)
		}
		byID[e.SeriesID] = append(byID[e.SeriesID], e)
	}
	return ids, byID
}
