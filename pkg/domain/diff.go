package domain

// SeriesDiffResult holds the verification outcome for a single series.
type SeriesDiffResult struct {
	SeriesID                string   `json:"series_id"`
	BaselineCount           int      `json:"baseline_count"`
	OrderedCount            int      `json:"ordered_count"`
	DroppedInstances        int      `json:"dropped_instances"`
	DuplicateIDs            []string `json:"duplicate_ids"`
	ReordersWithDecision    int      `json:"reorders_with_decision"`
	ReordersWithoutDecision int      `json:"reorders_without_decision"`
	UnexplainedChanges      []string `json:"unexplained_changes"`
	Passed                  bool     `json:"passed"`
}

// DiffReport proves, independently of the calculator's own claims, that the
// ordering transformation dropped nothing, duplicated nothing, and that every
// position change is explained by a recorded decision. Invariant violations
// are itemized here rather than raised; the run always completes so the full
// set of violations is reported.
type DiffReport struct {
	ReportID                 string             `json:"report_id"`
	Timestamp                string             `json:"timestamp"`
	BaselineManifestID       string             `json:"baseline_manifest_id"`
	OrderedManifestID        string             `json:"ordered_manifest_id"`
	BaselineHash             string             `json:"baseline_hash"`
	OrderedHash              string             `json:"ordered_hash"`
	DecisionLogHash          string             `json:"decision_log_hash"`
	TotalBaselineCount       int                `json:"total_baseline_count"`
	TotalOrderedCount        int                `json:"total_ordered_count"`
	TotalDropped             int                `json:"total_dropped"`
	TotalDuplicates          int                `json:"total_duplicates"`
	TotalUnexplainedReorders int                `json:"total_unexplained_reorders"`
	SeriesResults            []SeriesDiffResult `json:"series_results"`
	AllChecksPassed          bool               `json:"all_checks_passed"`
	FailureReasons           []string           `json:"failure_reasons"`

	ContentHash string `json:"-"`
}
