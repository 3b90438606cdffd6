package domain

import (
	"errors"
	"testing"
)

func TestEntryValidate(t *testing.T) {
	valid := Entry{SourceIndex: 0, InstanceID: "uid-1", SeriesID: "series-1"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid entry, got %v", err)
	}

	cases := []struct {
		name  string
		entry Entry
	}{
		{"empty instance id", Entry{SeriesID: "series-1"}},
		{"blank instance id", Entry{InstanceID: "   ", SeriesID: "series-1"}},
		{"empty series id", Entry{InstanceID: "uid-1"}},
		{"blank series id", Entry{InstanceID: "uid-1", SeriesID: "\t"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.entry.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidEntry) {
				t.Fatalf("expected ErrInvalidEntry, got %v", err)
			}
		})
	}
}

func TestNewEntryRejectsInvalid(t *testing.T) {
	if _, err := NewEntry(Entry{InstanceID: "uid-1"}); err == nil {
		t.Fatal("expected error for missing series id")
	}
	e, err := NewEntry(Entry{InstanceID: "uid-1", SeriesID: "series-1", InstanceNumber: IntPtr(7)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *e.InstanceNumber != 7 {
		t.Fatalf("entry not preserved: %+v", e)
	}
}
