package domain

// OrderingMethod names the key that actually differentiated an instance from
// its predecessor in the sorted sequence. The label is a best-effort
// explanation, not a causal proof; verification depends only on
// PositionChanged, never on the label.
type OrderingMethod string

const (
	MethodFirstEntry      OrderingMethod = "FIRST_ENTRY"
	MethodInstanceNumber  OrderingMethod = "INSTANCE_NUMBER"
	MethodAcquisitionTime OrderingMethod = "ACQUISITION_TIME"
	MethodSOPUIDTiebreak  OrderingMethod = "SOP_UID_TIEBREAK"
)

// OrderingDecision records why one instance landed at its ordered position.
// Index fields are zero-based positions within the instance's series.
type OrderingDecision struct {
	SeriesID        string         `json:"series_id"`
	InstanceID      string         `json:"instance_id"`
	IndexBefore     int            `json:"index_before"`
	IndexAfter      int            `json:"index_after"`
	InstanceNumber  *int           `json:"instance_number"`
	AcquisitionTime *string        `json:"acquisition_time"`
	Method          OrderingMethod `json:"method"`
	TieBreak        bool           `json:"tie_break"`
	Reason          string         `json:"reason,omitempty"`
	PositionChanged bool           `json:"position_changed"`
}

// SeriesOrderingResult aggregates the ordering statistics of one series.
type SeriesOrderingResult struct {
	SeriesID               string `json:"series_id"`
	TotalInstances         int    `json:"total_instances"`
	OrderingMethod         string `json:"ordering_method"`
	InstancesReordered     int    `json:"instances_reordered"`
	TiesByInstanceNumber   int    `json:"ties_by_instance_number"`
	TiesResolvedByTime     int    `json:"ties_resolved_by_time"`
	TiesResolvedByUID      int    `json:"ties_resolved_by_uid"`
	MissingInstanceNumber  int    `json:"missing_instance_number"`
	MissingAcquisitionTime int    `json:"missing_acquisition_time"`
}

// DecisionSummary totals the per-series statistics across a run.
type DecisionSummary struct {
	TotalEntries                int `json:"total_entries"`
	TotalSeries                 int `json:"total_series"`
	TotalInstancesReordered     int `json:"total_instances_reordered"`
	TotalTiesResolvedByUID      int `json:"total_ties_resolved_by_uid"`
	TotalMissingInstanceNumber  int `json:"total_missing_instance_number"`
	TotalMissingAcquisitionTime int `json:"total_missing_acquisition_time"`
}

// DecisionLog is the complete record of ordering decisions for one run. It
// is the sole accepted justification for position changes during
// verification.
type DecisionLog struct {
	LogID                string                 `json:"log_id"`
	Timestamp            string                 `json:"timestamp"`
	BaselineManifestID   string                 `json:"baseline_manifest_id"`
	BaselineManifestHash string                 `json:"baseline_manifest_hash"`
	SeriesResults        []SeriesOrderingResult `json:"series_results"`
	Decisions            []OrderingDecision     `json:"decisions"`
	Summary              DecisionSummary        `json:"summary"`

	ContentHash string `json:"-"`
}

// Decision returns the decision recorded for the given instance, if any.
func (l DecisionLog) Decision(seriesID, instanceID string) (OrderingDecision, bool) {
	for _, d := range l.Decisions {
		if d.SeriesID == seriesID && d.InstanceID == instanceID {
			return d, true
		}
	}
	return OrderingDecision{}, false
}
