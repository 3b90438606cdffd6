// Package domain defines the immutable records exchanged between the
// ordering pipeline stages and the interfaces of its external collaborators.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Entry describes a single source instance as observed by the extractor.
// Entries are write-once: they are captured from source metadata and never
// mutated afterwards. SourceIndex records file-discovery order only and
// carries no ordering authority.
type Entry struct {
	SourceIndex         int     `json:"file_index"`
	RelativePath        string  `json:"relative_path"`
	InstanceID          string  `json:"instance_id"`
	SeriesID            string  `json:"series_id"`
	StudyID             string  `json:"study_id,omitempty"`
	InstanceNumber      *int    `json:"instance_number"`
	AcquisitionTime     *string `json:"acquisition_time"`
	AcquisitionDateTime *string `json:"acquisition_datetime"`
	FrameNumber         *int    `json:"frame_number"`
	Modality            string  `json:"modality,omitempty"`
	SOPClassUID         string  `json:"sop_class_uid,omitempty"`
	NumberOfFrames      *int    `json:"number_of_frames"`
	IsMultiframe        bool    `json:"is_multiframe"`
	SeriesNumber        *int    `json:"series_number,omitempty"`
	SeriesDescription   string  `json:"series_description,omitempty"`
}

// ErrInvalidEntry reports a record that cannot participate in ordering.
var ErrInvalidEntry = errors.New("invalid entry")

// Validate checks the invariants a captured entry must satisfy.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.InstanceID) == "" {
		return fmt.Errorf("%w: empty instance id (file index %d)", ErrInvalidEntry, e.SourceIndex)
	}
	if strings.TrimSpace(e.SeriesID) == "" {
		return fmt.Errorf("%w: empty series id for instance %s", ErrInvalidEntry, e.InstanceID)
	}
	return nil
}

// NewEntry constructs a validated entry.
func NewEntry(e Entry) (Entry, error) {
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// IntPtr returns a pointer to v. Convenience for optional numeric fields.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to v. Convenience for optional string fields.
func StringPtr(v string) *string { return &v }
