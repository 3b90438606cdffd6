package core

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"seriescore/internal/artifact"
	"seriescore/pkg/domain"
)

var orderTime = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func baselineOf(t *testing.T, entries []domain.Entry) domain.BaselineManifest {
	t.Helper()
	m, err := NewBaselineManifestBuilder("1.0.0").Build("baseline-1", "/data", captureTime, entries)
	if err != nil {
		t.Fatalf("build baseline: %v", err)
	}
	_, hash, err := artifact.Seal(m)
	if err != nil {
		t.Fatalf("seal baseline: %v", err)
	}
	m.ContentHash = hash
	return m
}

// Three instances arriving as 3,1,2 come out as 1,2,3 with the first entry
// labeled FIRST_ENTRY and the rest INSTANCE_NUMBER.
func TestApplyOrdersByInstanceNumber(t *testing.T) {
	baseline := baselineOf(t, []domain.Entry{
		{SourceIndex: 0, InstanceID: "uid-c", SeriesID: "s1", InstanceNumber: domain.IntPtr(3)},
		{SourceIndex: 1, InstanceID: "uid-a", SeriesID: "s1", InstanceNumber: domain.IntPtr(1)},
		{SourceIndex: 2, InstanceID: "uid-b", SeriesID: "s1", InstanceNumber: domain.IntPtr(2)},
	})
	ordered, log, err := NewOrderCalculator("1.0.0").Apply(baseline, orderTime, "ordered-1", "log-1")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	wantIDs := []string{"uid-a", "uid-b", "uid-c"}
	for i, want := range wantIDs {
		if ordered.Entries[i].InstanceID != want {
			t.Fatalf("position %d: got %s, want %s", i, ordered.Entries[i].InstanceID, want)
		}
		if ordered.Entries[i].OrderedIndex != i+1 {
			t.Fatalf("ordered_index must be 1-based sequential, got %d", ordered.Entries[i].OrderedIndex)
		}
	}

	if log.Decisions[0].Method != domain.MethodFirstEntry {
		t.Fatalf("first decision method %s", log.Decisions[0].Method)
	}
	for _, d := range log.Decisions[1:] {
		if d.Method != domain.MethodInstanceNumber {
			t.Fatalf("expected INSTANCE_NUMBER for %s, got %s", d.InstanceID, d.Method)
		}
		if d.TieBreak {
			t.Fatalf("no tie-break expected for %s", d.InstanceID)
		}
	}

	// uid-c moved 0->2, uid-a moved 1->0; uid-b moved 2->1: all three moved.
	if log.SeriesResults[0].InstancesReordered != 3 {
		t.Fatalf("instances_reordered = %d", log.SeriesResults[0].InstancesReordered)
	}
	if log.SeriesResults[0].OrderingMethod != "INSTANCE_NUMBER" {
		t.Fatalf("ordering_method = %s", log.SeriesResults[0].OrderingMethod)
	}
	if ordered.BaselineManifestHash != baseline.ContentHash {
		t.Fatal("ordered manifest must reference the baseline hash")
	}
	if len(ordered.OrderingPrecedence) != 4 {
		t.Fatalf("ordering precedence must list 4 levels, got %d", len(ordered.OrderingPrecedence))
	}
}

// Identical instance numbers and identical times fall through to the
// instance-id tie-break.
func TestApplyResolvesFullTieByUID(t *testing.T) {
	baseline := baselineOf(t, []domain.Entry{
		{SourceIndex: 0, InstanceID: "uid-b", SeriesID: "s1", InstanceNumber: domain.IntPtr(5), AcquisitionTime: domain.StringPtr("090000")},
		{SourceIndex: 1, InstanceID: "uid-a", SeriesID: "s1", InstanceNumber: domain.IntPtr(5), AcquisitionTime: domain.StringPtr("090000")},
	})
	ordered, log, err := NewOrderCalculator("1.0.0").Apply(baseline, orderTime, "ordered-1", "log-1")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ordered.Entries[0].InstanceID != "uid-a" || ordered.Entries[1].InstanceID != "uid-b" {
		t.Fatalf("expected lexical uid order, got %s %s", ordered.Entries[0].InstanceID, ordered.Entries[1].InstanceID)
	}

	result := log.SeriesResults[0]
	if result.TiesResolvedByUID != 1 {
		t.Fatalf("ties_resolved_by_uid = %d", result.TiesResolvedByUID)
	}
	if result.TiesByInstanceNumber != 1 {
		t.Fatalf("ties_by_instance_number = %d", result.TiesByInstanceNumber)
	}
	if result.OrderingMethod != "MIXED" {
		t.Fatalf("ordering_method = %s", result.OrderingMethod)
	}

	second := log.Decisions[1]
	if second.Method != domain.MethodSOPUIDTiebreak || !second.TieBreak {
		t.Fatalf("expected SOP_UID_TIEBREAK, got %+v", second)
	}
	if !strings.Contains(second.Reason, "IN=5") {
		t.Fatalf("reason should name the tied value: %q", second.Reason)
	}
}

func TestApplyResolvesTieByAcquisitionTime(t *testing.T) {
	baseline := baselineOf(t, []domain.Entry{
		{SourceIndex: 0, InstanceID: "uid-b", SeriesID: "s1", InstanceNumber: domain.IntPtr(5), AcquisitionTime: domain.StringPtr("110000")},
		{SourceIndex: 1, InstanceID: "uid-a", SeriesID: "s1", InstanceNumber: domain.IntPtr(5), AcquisitionTime: domain.StringPtr("090000")},
	})
	_, log, err := NewOrderCalculator("1.0.0").Apply(baseline, orderTime, "ordered-1", "log-1")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if log.Decisions[1].Method != domain.MethodAcquisitionTime {
		t.Fatalf("expected ACQUISITION_TIME, got %s", log.Decisions[1].Method)
	}
	if log.SeriesResults[0].TiesResolvedByTime != 1 {
		t.Fatalf("ties_resolved_by_time = %d", log.SeriesResults[0].TiesResolvedByTime)
	}
}

func TestApplyMissingFieldsSortLastAndAreCounted(t *testing.T) {
	baseline := baselineOf(t, []domain.Entry{
		{SourceIndex: 0, InstanceID: "uid-na", SeriesID: "s1"},
		{SourceIndex: 1, InstanceID: "uid-a", SeriesID: "s1", InstanceNumber: domain.IntPtr(2), AcquisitionTime: domain.StringPtr("090000")},
		{SourceIndex: 2, InstanceID: "uid-b", SeriesID: "s1", InstanceNumber: domain.IntPtr(1), AcquisitionTime: domain.StringPtr("bogus")},
	})
	ordered, log, err := NewOrderCalculator("1.0.0").Apply(baseline, orderTime, "ordered-1", "log-1")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if last := ordered.Entries[2].InstanceID; last != "uid-na" {
		t.Fatalf("entry without keys must sort last, got %s", last)
	}
	result := log.SeriesResults[0]
	if result.MissingInstanceNumber != 1 {
		t.Fatalf("missing_instance_number = %d", result.MissingInstanceNumber)
	}
	// uid-na has no time fields at all; uid-b's malformed value still counts
	// as present for the missing-field statistic.
	if result.MissingAcquisitionTime != 1 {
		t.Fatalf("missing_acquisition_time = %d", result.MissingAcquisitionTime)
	}
}

func TestApplyProcessesSeriesInLexicalOrder(t *testing.T) {
	baseline := baselineOf(t, []domain.Entry{
		{SourceIndex: 0, InstanceID: "uid-1", SeriesID: "series-z", InstanceNumber: domain.IntPtr(1)},
		{SourceIndex: 1, InstanceID: "uid-2", SeriesID: "series-a", InstanceNumber: domain.IntPtr(1)},
	})
	ordered, log, err := NewOrderCalculator("1.0.0").Apply(baseline, orderTime, "ordered-1", "log-1")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ordered.Entries[0].SeriesID != "series-a" {
		t.Fatal("series must be emitted in lexical id order")
	}
	if log.SeriesResults[0].SeriesID != "series-a" || log.SeriesResults[1].SeriesID != "series-z" {
		t.Fatalf("series results out of order: %+v", log.SeriesResults)
	}
	if log.Summary.TotalSeries != 2 || log.Summary.TotalEntries != 2 {
		t.Fatalf("summary totals: %+v", log.Summary)
	}
}

func TestApplyIsDeterministic(t *testing.T) {
	baseline := baselineOf(t, []domain.Entry{
		{SourceIndex: 0, InstanceID: "uid-c", SeriesID: "s1", InstanceNumber: domain.IntPtr(2)},
		{SourceIndex: 1, InstanceID: "uid-a", SeriesID: "s1", InstanceNumber: domain.IntPtr(1)},
		{SourceIndex: 2, InstanceID: "uid-b", SeriesID: "s2"},
	})
	calc := NewOrderCalculator("1.0.0")

	first, _, err := calc.Apply(baseline, orderTime, "ordered-1", "log-1")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	second, _, err := calc.Apply(baseline, orderTime, "ordered-1", "log-1")
	if err != nil {
		t.Fatalf("apply again: %v", err)
	}

	firstBytes, err := artifact.Encode(first)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	secondBytes, err := artifact.Encode(second)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(firstBytes, secondBytes) {
		t.Fatal("expected byte-identical ordered manifests")
	}
}

// Re-running the calculator over its own output reproduces the same order:
// the ordered entries, fed back as a baseline, sort identically.
func TestApplyIsIdempotent(t *testing.T) {
	baseline := baselineOf(t, []domain.Entry{
		{SourceIndex: 0, InstanceID: "uid-c", SeriesID: "s1", InstanceNumber: domain.IntPtr(3)},
		{SourceIndex: 1, InstanceID: "uid-a", SeriesID: "s1", InstanceNumber: domain.IntPtr(1)},
		{SourceIndex: 2, InstanceID: "uid-b", SeriesID: "s1", InstanceNumber: domain.IntPtr(2)},
	})
	calc := NewOrderCalculator("1.0.0")
	ordered, _, err := calc.Apply(baseline, orderTime, "ordered-1", "log-1")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	rebase := make([]domain.Entry, 0, len(ordered.Entries))
	for i, e := range ordered.Entries {
		entry := e.Entry
		entry.SourceIndex = i
		rebase = append(rebase, entry)
	}
	again, log, err := calc.Apply(baselineOf(t, rebase), orderTime, "ordered-2", "log-2")
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}
	for i := range again.Entries {
		if again.Entries[i].InstanceID != ordered.Entries[i].InstanceID {
			t.Fatalf("position %d changed on reapply", i)
		}
	}
	if log.Summary.TotalInstancesReordered != 0 {
		t.Fatalf("reapplying an ordered series must move nothing, moved %d", log.Summary.TotalInstancesReordered)
	}
}

func TestApplyRequiresSealedBaseline(t *testing.T) {
	m, err := NewBaselineManifestBuilder("1.0.0").Build("baseline-1", "/data", captureTime, []domain.Entry{
		{SourceIndex: 0, InstanceID: "uid-a", SeriesID: "s1"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, _, err := NewOrderCalculator("1.0.0").Apply(m, orderTime, "o", "l"); err == nil {
		t.Fatal("expected error for baseline without content hash")
	}
}
