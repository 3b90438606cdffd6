package presentation

import (
	"fmt"
	"strings"
	"time"
)

const viewerIndexSchemaVersion = "1.0.0"

// Imaging modalities eligible for the default series filter. Document-style
// objects (SC, OT, DOC) are hidden unless explicitly requested.
var imageModalities = map[string]struct{}{
	"US": {}, "CT": {}, "MR": {}, "DX": {}, "CR": {},
	"MG": {}, "XA": {}, "RF": {}, "NM": {}, "PT": {},
}

// IsImageModality reports whether the series holds imaging objects rather
// than documents.
func (s Series) IsImageModality() bool {
	_, ok := imageModalities[s.Modality]
	return ok
}

// DisplayLabel renders the series browser label:
// "S003 Obstetric (45)". Unknown series numbers render as "S???"; long
// descriptions are truncated.
func (s Series) DisplayLabel() string {
	prefix := "S???"
	if s.SeriesNumber != nil {
		prefix = fmt.Sprintf("S%03d", *s.SeriesNumber)
	}
	desc := s.SeriesDescription
	if desc == "" {
		desc = "Unknown"
	}
	if len(desc) > 20 {
		desc = desc[:17] + "..."
	}
	return fmt.Sprintf("%s %s (%d)", prefix, desc, s.Count())
}

// FilteredSeries returns the series to display. By default only imaging
// series are listed; includeNonImage adds document-style series.
func (v StudyView) FilteredSeries(includeNonImage bool) []Series {
	if includeNonImage {
		return v.Series
	}
	var filtered []Series
	for _, s := range v.Series {
		if s.IsImageModality() {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Summary holds aggregate counts for the study header line.
type Summary struct {
	TotalSeries    int
	TotalInstances int
	ImageSeries    int
	DocumentSeries int
}

// Summarize computes the study header counts.
func (v StudyView) Summarize() Summary {
	sum := Summary{TotalSeries: len(v.Series)}
	for _, s := range v.Series {
		sum.TotalInstances += s.Count()
		if s.IsImageModality() {
			sum.ImageSeries++
		} else {
			sum.DocumentSeries++
		}
	}
	return sum
}

// ViewerIndexInstance is one instance row in the exported viewer index.
type ViewerIndexInstance struct {
	FilePath       string `json:"file_path"`
	InstanceID     string `json:"sop_instance_uid"`
	InstanceNumber *int   `json:"instance_number"`
	DisplayIndex   int    `json:"display_index"`
}

// ViewerIndexSeries is one series group in the exported viewer index.
type ViewerIndexSeries struct {
	SeriesID          string                `json:"series_uid"`
	SeriesNumber      *int                  `json:"series_number"`
	SeriesDescription string                `json:"series_description"`
	Modality          string                `json:"modality"`
	IsImageModality   bool                  `json:"is_image_modality"`
	InstanceCount     int                   `json:"instance_count"`
	Instances         []ViewerIndexInstance `json:"instances"`
}

// ViewerIndex is a presentation-only export of a resolved study view for
// external viewers. It never feeds back into the verified artifacts and
// carries an explicit provenance annotation instead.
type ViewerIndex struct {
	SchemaVersion  string              `json:"schema_version"`
	GeneratedAt    string              `json:"generated_at"`
	StudyID        string              `json:"study_uid,omitempty"`
	TotalInstances int                 `json:"total_instances"`
	Series         []ViewerIndexSeries `json:"series"`
	OrderingSource string              `json:"ordering_source"`
	Note           string              `json:"note"`
}

// BuildViewerIndex exports the resolved view as a viewer index. The view's
// series and instance order is preserved as-is; orderingSource names where
// that order came from (for example the sealed manifest key).
func (v StudyView) BuildViewerIndex(studyID string, generatedAt time.Time, orderingSource string) ViewerIndex {
	index := ViewerIndex{
		SchemaVersion:  viewerIndexSchemaVersion,
		GeneratedAt:    generatedAt.UTC().Format(time.RFC3339Nano),
		StudyID:        studyID,
		Series:         []ViewerIndexSeries{},
		OrderingSource: orderingSource,
		Note:           "Presentation-only index. Display order matches the resolved view.",
	}
	for _, s := range v.Series {
		desc := s.SeriesDescription
		if desc == "" {
			desc = "Unknown Series"
		}
		modality := s.Modality
		if modality == "" {
			modality = "UNK"
		}
		out := ViewerIndexSeries{
			SeriesID:          s.SeriesID,
			SeriesNumber:      s.SeriesNumber,
			SeriesDescription: desc,
			Modality:          modality,
			IsImageModality:   s.IsImageModality(),
			InstanceCount:     s.Count(),
			Instances:         make([]ViewerIndexInstance, 0, s.Count()),
		}
		for _, inst := range s.Instances {
			path := inst.Filename
			if path == "" {
				path = "unknown.dcm"
			}
			out.Instances = append(out.Instances, ViewerIndexInstance{
				FilePath:       path,
				InstanceID:     inst.InstanceID,
				InstanceNumber: inst.InstanceNumber,
				DisplayIndex:   inst.StackPosition,
			})
			index.TotalInstances++
		}
		index.Series = append(index.Series, out)
	}
	return index
}

// Validate checks the exported index structure. It returns one message per
// problem; an empty slice means the index is well formed.
func (idx ViewerIndex) Validate() []string {
	var errs []string
	if idx.SchemaVersion == "" {
		errs = append(errs, "missing schema_version")
	}
	if idx.GeneratedAt == "" {
		errs = append(errs, "missing generated_at")
	}
	if idx.OrderingSource == "" {
		errs = append(errs, "missing ordering_source")
	}
	for i, s := range idx.Series {
		prefix := fmt.Sprintf("series[%d]", i)
		if s.SeriesID == "" {
			errs = append(errs, prefix+": missing series_uid")
		}
		if s.Modality == "" {
			errs = append(errs, prefix+": missing modality")
		}
		for j, inst := range s.Instances {
			instPrefix := fmt.Sprintf("%s.instances[%d]", prefix, j)
			if inst.FilePath == "" {
				errs = append(errs, instPrefix+": missing file_path")
			} else if absolutePath(inst.FilePath) {
				errs = append(errs, fmt.Sprintf("%s: absolute path disallowed: %s", instPrefix, inst.FilePath))
			}
			if inst.InstanceID == "" {
				errs = append(errs, instPrefix+": missing sop_instance_uid")
			}
			if inst.DisplayIndex < 1 {
				errs = append(errs, fmt.Sprintf("%s: invalid display_index (%d)", instPrefix, inst.DisplayIndex))
			}
		}
	}
	return errs
}

// absolutePath reports paths that would break a relocatable export,
// including Windows drive and UNC forms.
func absolutePath(p string) bool {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, "\\") {
		return true
	}
	return len(p) > 1 && p[1] == ':'
}
