package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"seriescore/pkg/domain"
)

// maxNamedDropped bounds how many dropped instance ids one failure reason
// names before eliding the rest.
const maxNamedDropped = 3

// DiffVerifier proves the ordering transformation correct independently of
// the calculator's own claims. It re-derives every movement from raw
// positions and accepts the decision log as the only legitimate cause.
// Invariant violations never abort the run; they are itemized in the report
// so the full set of violations is surfaced.
type DiffVerifier struct{}

// NewDiffVerifier constructs a verifier.
func NewDiffVerifier() *DiffVerifier { return &DiffVerifier{} }

// Verify compares the baseline and ordered manifests series by series and
// emits the diff report. The decision log hash is embedded so the report
// binds all three predecessor artifacts.
func (v *DiffVerifier) Verify(baseline domain.BaselineManifest, ordered domain.OrderedManifest, log domain.DecisionLog, now time.Time, reportID string) domain.DiffReport {
	report := domain.DiffReport{
		ReportID:           reportID,
		Timestamp:          now.UTC().Format(time.RFC3339Nano),
		BaselineManifestID: baseline.ManifestID,
		OrderedManifestID:  ordered.ManifestID,
		BaselineHash:       baseline.ContentHash,
		OrderedHash:        ordered.ContentHash,
		DecisionLogHash:    log.ContentHash,
		TotalBaselineCount: len(baseline.Entries),
		TotalOrderedCount:  len(ordered.Entries),
		FailureReasons:     []string{},
	}

	baselineIDs, baselineBySeries := baseline.SeriesEntries()
	orderedIDs, orderedBySeries := ordered.SeriesEntries()
	allSeries := unionSorted(baselineIDs, orderedIDs)

	for _, seriesID := range allSeries {
		result := verifySeries(seriesID, baselineBySeries[seriesID], orderedBySeries[seriesID], log, &report.FailureReasons)
		report.SeriesResults = append(report.SeriesResults, result)
		report.TotalDropped += result.DroppedInstances
		report.TotalDuplicates += len(result.DuplicateIDs)
		report.TotalUnexplainedReorders += result.ReordersWithoutDecision
	}

	report.AllChecksPassed = report.TotalDropped == 0 &&
		report.TotalDuplicates == 0 &&
		report.TotalUnexplainedReorders == 0 &&
		len(report.FailureReasons) == 0
	return report
}

func verifySeries(seriesID string, baselineEntries []domain.Entry, orderedEntries []domain.OrderedEntry, log domain.DecisionLog, failureReasons *[]string) domain.SeriesDiffResult {
	result := domain.SeriesDiffResult{
		SeriesID:           seriesID,
		BaselineCount:      len(baselineEntries),
		OrderedCount:       len(orderedEntries),
		DuplicateIDs:       []string{},
		UnexplainedChanges: []string{},
	}
	if result.BaselineCount > result.OrderedCount {
		result.DroppedInstances = result.BaselineCount - result.OrderedCount
	}

	// Duplicates within the ordered series.
	seen := make(map[string]struct{}, len(orderedEntries))
	for _, e := range orderedEntries {
		if _, dup := seen[e.InstanceID]; dup {
			result.DuplicateIDs = append(result.DuplicateIDs, e.InstanceID)
		}
		seen[e.InstanceID] = struct{}{}
	}

	// Set difference in both directions. Sorted so report bytes are stable.
	baselineSet := make(map[string]struct{}, len(baselineEntries))
	for _, e := range baselineEntries {
		baselineSet[e.InstanceID] = struct{}{}
	}
	var missing []string
	for id := range baselineSet {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	var extra []string
	for id := range seen {
		if _, ok := baselineSet[id]; !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)

	if len(missing) > 0 {
		result.DroppedInstances = len(missing)
		*failureReasons = append(*failureReasons, fmt.Sprintf("Series %s: %d instances dropped: %s",
			truncateID(seriesID), len(missing), nameFirst(missing, maxNamedDropped)))
	}
	if len(extra) > 0 {
		*failureReasons = append(*failureReasons, fmt.Sprintf("Series %s: %d unexpected instances appeared",
			truncateID(seriesID), len(extra)))
	}

	// Explained-reorder check: movement is re-derived from raw positions;
	// the decision log is the only accepted justification.
	baselinePos := make(map[string]int, len(baselineEntries))
	for i, e := range baselineEntries {
		baselinePos[e.InstanceID] = i
	}
	for newIdx, e := range orderedEntries {
		oldIdx, inBaseline := baselinePos[e.InstanceID]
		if !inBaseline {
			result.UnexplainedChanges = append(result.UnexplainedChanges,
				fmt.Sprintf("instance %s not found in baseline", truncateID(e.InstanceID)))
			continue
		}
		if oldIdx == newIdx {
			continue
		}
		decision, found := log.Decision(seriesID, e.InstanceID)
		if found && decision.PositionChanged {
			result.ReordersWithDecision++
		} else {
			result.ReordersWithoutDecision++
			result.UnexplainedChanges = append(result.UnexplainedChanges,
				fmt.Sprintf("instance %s moved %d->%d without decision record", truncateID(e.InstanceID), oldIdx, newIdx))
		}
	}

	result.Passed = result.DroppedInstances == 0 &&
		len(result.DuplicateIDs) == 0 &&
		result.ReordersWithoutDecision == 0 &&
		len(result.UnexplainedChanges) == 0
	return result
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		set[id] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func truncateID(id string) string {
	if len(id) <= 30 {
		return id
	}
	return id[:30]
}

func nameFirst(ids []string, n int) string {
	if len(ids) <= n {
		return strings.Join(ids, ", ")
	}
	return strings.Join(ids[:n], ", ") + ", ..."
}
