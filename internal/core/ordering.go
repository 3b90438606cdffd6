package core

import (
	"fmt"
	"sort"
	"time"

	"seriescore/pkg/domain"
)

// orderingPrecedence is the fixed cascade recorded in every ordered
// manifest. Its wording is part of the artifact contract.
var orderingPrecedence = []string{
	"1. Multi-frame index (if applicable)",
	"2. InstanceNumber (numeric)",
	"3. AcquisitionDateTime / AcquisitionTime",
	"4. SOPInstanceUID (lexical tie-breaker)",
}

// OrderCalculator derives the canonical per-series order of a baseline
// manifest and records one decision per instance explaining its placement.
// The calculation is pure: same baseline in, byte-identical artifacts out.
type OrderCalculator struct {
	scriptVersion string
}

// NewOrderCalculator constructs a calculator stamping manifests with the
// supplied script version.
func NewOrderCalculator(scriptVersion string) *OrderCalculator {
	return &OrderCalculator{scriptVersion: scriptVersion}
}

// Apply orders every series of the baseline and returns the ordered manifest
// together with its decision log. Series are processed in lexical series-id
// order; within a series the composite key is a total order because instance
// ids are unique. Malformed per-instance fields degrade to missing and are
// counted, never raised.
func (c *OrderCalculator) Apply(baseline domain.BaselineManifest, now time.Time, manifestID, logID string) (domain.OrderedManifest, domain.DecisionLog, error) {
	if baseline.ContentHash == "" {
		return domain.OrderedManifest{}, domain.DecisionLog{}, fmt.Errorf("apply ordering: baseline manifest has no content hash")
	}
	timestamp := now.UTC().Format(time.RFC3339Nano)

	seriesIDs, bySeries := baseline.SeriesEntries()
	sort.Strings(seriesIDs)

	var (
		orderedEntries []domain.OrderedEntry
		decisions      []domain.OrderingDecision
		seriesResults  []domain.SeriesOrderingResult
		summary        = domain.DecisionSummary{
			TotalEntries: len(baseline.Entries),
			TotalSeries:  len(seriesIDs),
		}
	)

	for _, seriesID := range seriesIDs {
		entries := bySeries[seriesID]
		sorted, seriesDecisions, result := orderSeries(seriesID, entries)
		orderedEntries = append(orderedEntries, sorted...)
		decisions = append(decisions, seriesDecisions...)
		seriesResults = append(seriesResults, result)

		summary.TotalInstancesReordered += result.InstancesReordered
		summary.TotalTiesResolvedByUID += result.TiesResolvedByUID
		summary.TotalMissingInstanceNumber += result.MissingInstanceNumber
		summary.TotalMissingAcquisitionTime += result.MissingAcquisitionTime
	}

	ordered := domain.OrderedManifest{
		ManifestID:           manifestID,
		GenerationTimestamp:  timestamp,
		BaselineManifestID:   baseline.ManifestID,
		BaselineManifestHash: baseline.ContentHash,
		OrderingPrecedence:   append([]string(nil), orderingPrecedence...),
		TotalEntries:         len(orderedEntries),
		TotalSeries:          len(seriesIDs),
		Entries:              orderedEntries,
		ScriptVersion:        c.scriptVersion,
	}
	log := domain.DecisionLog{
		LogID:                logID,
		Timestamp:            timestamp,
		BaselineManifestID:   baseline.ManifestID,
		BaselineManifestHash: baseline.ContentHash,
		SeriesResults:        seriesResults,
		Decisions:            decisions,
		Summary:              summary,
	}
	return ordered, log, nil
}

// orderSeries sorts one series and walks the result attributing a method to
// every placement.
func orderSeries(seriesID string, entries []domain.Entry) ([]domain.OrderedEntry, []domain.OrderingDecision, domain.SeriesOrderingResult) {
	originalIndex := make(map[string]int, len(entries))
	for i, e := range entries {
		originalIndex[e.InstanceID] = i
	}

	sorted := append([]domain.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return keyFor(sorted[i]).less(keyFor(sorted[j]))
	})

	result := domain.SeriesOrderingResult{
		SeriesID:       seriesID,
		TotalInstances: len(entries),
	}

	ordered := make([]domain.OrderedEntry, 0, len(sorted))
	decisions := make([]domain.OrderingDecision, 0, len(sorted))
	var prev *domain.Entry
	for newIdx := range sorted {
		entry := sorted[newIdx]
		oldIdx := originalIndex[entry.InstanceID]
		positionChanged := oldIdx != newIdx
		if positionChanged {
			result.InstancesReordered++
		}
		if entry.InstanceNumber == nil {
			result.MissingInstanceNumber++
		}
		if entry.AcquisitionTime == nil && entry.AcquisitionDateTime == nil {
			result.MissingAcquisitionTime++
		}

		method, tieBreak, reason := attributeMethod(entry, prev)
		if tieBreak {
			switch method {
			case domain.MethodAcquisitionTime:
				result.TiesResolvedByTime++
			case domain.MethodSOPUIDTiebreak:
				result.TiesResolvedByUID++
			}
		}
		if prev != nil && intPtrEqual(entry.InstanceNumber, prev.InstanceNumber) {
			result.TiesByInstanceNumber++
		}

		decisions = append(decisions, domain.OrderingDecision{
			SeriesID:        seriesID,
			InstanceID:      entry.InstanceID,
			IndexBefore:     oldIdx,
			IndexAfter:      newIdx,
			InstanceNumber:  entry.InstanceNumber,
			AcquisitionTime: entry.AcquisitionTime,
			Method:          method,
			TieBreak:        tieBreak,
			Reason:          reason,
			PositionChanged: positionChanged,
		})
		ordered = append(ordered, domain.OrderedEntry{
			Entry:             entry,
			OrderedIndex:      newIdx + 1,
			OriginalFileIndex: entry.SourceIndex,
		})
		prev = &sorted[newIdx]
	}

	if result.TiesResolvedByUID == 0 {
		result.OrderingMethod = string(domain.MethodInstanceNumber)
	} else {
		result.OrderingMethod = "MIXED"
	}
	return ordered, decisions, result
}

// attributeMethod names the key that differentiated entry from its
// predecessor in the sorted sequence. The label is a best-effort explanation
// for auditors; verification relies on the position record, not the label.
func attributeMethod(entry domain.Entry, prev *domain.Entry) (domain.OrderingMethod, bool, string) {
	if prev == nil {
		return domain.MethodFirstEntry, false, ""
	}
	if entry.InstanceNumber != nil && prev.InstanceNumber != nil && *entry.InstanceNumber != *prev.InstanceNumber {
		return domain.MethodInstanceNumber, false, ""
	}
	currTime, currOK := parseOptionalTime(entry.AcquisitionTime)
	prevTime, prevOK := parseOptionalTime(prev.AcquisitionTime)
	if currOK && prevOK && currTime != prevTime {
		return domain.MethodAcquisitionTime, true,
			fmt.Sprintf("IN=%s tied, resolved by AcquisitionTime", formatIntPtr(entry.InstanceNumber))
	}
	return domain.MethodSOPUIDTiebreak, true,
		fmt.Sprintf("IN=%s and AcquisitionTime tied/missing, resolved by SOPInstanceUID lexical order", formatIntPtr(entry.InstanceNumber))
}

func parseOptionalTime(s *string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	return parseTimeOfDay(*s)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func formatIntPtr(v *int) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *v)
}
