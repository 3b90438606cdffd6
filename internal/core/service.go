package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"seriescore/internal/artifact"
	"seriescore/pkg/domain"
)

// Operation names used in audit events, metrics, and trace spans.
const (
	OpCaptureBaseline = "capture_baseline"
	OpApplyOrdering   = "apply_ordering"
	OpVerifyOrdering  = "verify_ordering"
	OpRunPipeline     = "run_pipeline"
)

const defaultScriptVersion = "1.0.0"

// Service orchestrates the capture, order, and verify stages over an
// artifact store. Each stage fully materializes its input and output in
// memory and writes artifacts only after computation completes; re-running a
// stage against fresh storage is always safe.
type Service struct {
	extractor domain.EntryExtractor
	artifacts *artifact.Store

	clock         domain.Clock
	ids           domain.IDGenerator
	logger        domain.Logger
	audit         domain.AuditRecorder
	metrics       MetricsRecorder
	tracer        Tracer
	scriptVersion string

	builder    *BaselineManifestBuilder
	calculator *OrderCalculator
	verifier   *DiffVerifier
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for artifact timestamps.
func WithClock(clock domain.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides the artifact identifier source.
func WithIDGenerator(ids domain.IDGenerator) Option {
	return func(s *Service) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithLogger attaches a structured logging sink.
func WithLogger(logger domain.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditRecorder attaches an audit sink receiving one event per operation.
func WithAuditRecorder(recorder domain.AuditRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithMetricsRecorder attaches a metrics sink.
func WithMetricsRecorder(metrics MetricsRecorder) Option {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithTracer attaches a tracer opening one span per operation.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithScriptVersion overrides the version stamped into artifacts.
func WithScriptVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.scriptVersion = version
		}
	}
}

// NewService constructs a pipeline service over the supplied extractor and
// artifact store.
func NewService(extractor domain.EntryExtractor, artifacts *artifact.Store, opts ...Option) *Service {
	s := &Service{
		extractor:     extractor,
		artifacts:     artifacts,
		clock:         domain.ClockFunc(time.Now),
		ids:           domain.IDFunc(func() string { return uuid.NewString() }),
		logger:        domain.NopLogger{},
		metrics:       NoopMetricsRecorder{},
		tracer:        noopTracer{},
		scriptVersion: defaultScriptVersion,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = NewBaselineManifestBuilder(s.scriptVersion)
	s.calculator = NewOrderCalculator(s.scriptVersion)
	s.verifier = NewDiffVerifier()
	return s
}

// CaptureBaseline extracts entries from source and seals them into the
// baseline manifest.
func (s *Service) CaptureBaseline(ctx context.Context, source string) (manifest domain.BaselineManifest, err error) {
	defer s.instrument(ctx, OpCaptureBaseline, s.clock.Now(), func() string { return manifest.ManifestID }, &err)()

	entries, err := s.extractor.Extract(ctx, source)
	if err != nil {
		return domain.BaselineManifest{}, fmt.Errorf("capture baseline: %w", err)
	}
	manifest, err = s.builder.Build(s.ids.NewID(), source, s.clock.Now(), entries)
	if err != nil {
		return domain.BaselineManifest{}, err
	}
	hash, err := s.artifacts.SaveBaseline(ctx, manifest)
	if err != nil {
		return domain.BaselineManifest{}, fmt.Errorf("capture baseline: %w", err)
	}
	manifest.ContentHash = hash
	s.logger.Info("baseline captured",
		"manifest_id", manifest.ManifestID,
		"total_files", manifest.TotalFiles,
		"total_series", manifest.TotalSeries,
		"hash", hash)
	return manifest, nil
}

// ApplyOrdering loads the baseline, derives the canonical order, and seals
// the ordered manifest and decision log.
func (s *Service) ApplyOrdering(ctx context.Context) (ordered domain.OrderedManifest, log domain.DecisionLog, err error) {
	defer s.instrument(ctx, OpApplyOrdering, s.clock.Now(), func() string { return ordered.ManifestID }, &err)()

	baseline, err := s.artifacts.LoadBaseline(ctx)
	if err != nil {
		return domain.OrderedManifest{}, domain.DecisionLog{}, fmt.Errorf("apply ordering: %w", err)
	}
	ordered, log, err = s.calculator.Apply(baseline, s.clock.Now(), s.ids.NewID(), s.ids.NewID())
	if err != nil {
		return domain.OrderedManifest{}, domain.DecisionLog{}, err
	}
	orderedHash, err := s.artifacts.SaveOrdered(ctx, ordered)
	if err != nil {
		return domain.OrderedManifest{}, domain.DecisionLog{}, fmt.Errorf("apply ordering: %w", err)
	}
	ordered.ContentHash = orderedHash
	logHash, err := s.artifacts.SaveDecisionLog(ctx, log)
	if err != nil {
		return domain.OrderedManifest{}, domain.DecisionLog{}, fmt.Errorf("apply ordering: %w", err)
	}
	log.ContentHash = logHash
	s.logger.Info("ordering applied",
		"manifest_id", ordered.ManifestID,
		"log_id", log.LogID,
		"total_entries", ordered.TotalEntries,
		"total_series", ordered.TotalSeries,
		"instances_reordered", log.Summary.TotalInstancesReordered,
		"ties_resolved_by_uid", log.Summary.TotalTiesResolvedByUID)
	return ordered, log, nil
}

// VerifyOrdering loads the three predecessor artifacts, proves the ordering
// transformation correct, and seals the diff report. A report with failed
// checks is a successful verification run; the error return covers only
// missing or unreadable inputs.
func (s *Service) VerifyOrdering(ctx context.Context) (report domain.DiffReport, err error) {
	defer s.instrument(ctx, OpVerifyOrdering, s.clock.Now(), func() string { return report.ReportID }, &err)()

	baseline, err := s.artifacts.LoadBaseline(ctx)
	if err != nil {
		return domain.DiffReport{}, fmt.Errorf("verify ordering: %w", err)
	}
	ordered, err := s.artifacts.LoadOrdered(ctx)
	if err != nil {
		return domain.DiffReport{}, fmt.Errorf("verify ordering: %w", err)
	}
	log, err := s.artifacts.LoadDecisionLog(ctx)
	if err != nil {
		return domain.DiffReport{}, fmt.Errorf("verify ordering: %w", err)
	}
	report = s.verifier.Verify(baseline, ordered, log, s.clock.Now(), s.ids.NewID())
	hash, err := s.artifacts.SaveDiffReport(ctx, report)
	if err != nil {
		return domain.DiffReport{}, fmt.Errorf("verify ordering: %w", err)
	}
	report.ContentHash = hash
	if report.AllChecksPassed {
		s.logger.Info("verification passed", "report_id", report.ReportID)
	} else {
		s.logger.Warn("verification failed",
			"report_id", report.ReportID,
			"dropped", report.TotalDropped,
			"duplicates", report.TotalDuplicates,
			"unexplained_reorders", report.TotalUnexplainedReorders,
			"failure_reasons", len(report.FailureReasons))
	}
	return report, nil
}

// RunResult bundles the artifacts of one full pipeline run.
type RunResult struct {
	Baseline domain.BaselineManifest
	Ordered  domain.OrderedManifest
	Log      domain.DecisionLog
	Report   domain.DiffReport
}

// Run executes capture, order, and verify in sequence. A failing stage
// aborts the run; no partial output is produced past the failure point.
func (s *Service) Run(ctx context.Context, source string) (result RunResult, err error) {
	defer s.instrument(ctx, OpRunPipeline, s.clock.Now(), func() string { return result.Report.ReportID }, &err)()

	result.Baseline, err = s.CaptureBaseline(ctx, source)
	if err != nil {
		return RunResult{}, err
	}
	result.Ordered, result.Log, err = s.ApplyOrdering(ctx)
	if err != nil {
		return RunResult{}, err
	}
	result.Report, err = s.VerifyOrdering(ctx)
	if err != nil {
		return RunResult{}, err
	}
	return result, nil
}

// instrument wraps one operation with trace span, metrics observation, and
// audit event emission. The returned func runs in a defer at operation exit.
func (s *Service) instrument(ctx context.Context, operation string, started time.Time, artifactID func() string, errp *error) func() {
	_, span := s.tracer.Start(ctx, operation)
	return func() {
		err := *errp
		duration := s.clock.Now().Sub(started)
		span.End(err)
		s.metrics.Observe(ctx, operation, err == nil, duration)
		if s.audit == nil {
			return
		}
		event := domain.AuditEvent{
			RunID:      artifactID(),
			Operation:  operation,
			ArtifactID: artifactID(),
			Status:     domain.AuditStatusSuccess,
			Duration:   duration,
			Timestamp:  s.clock.Now().UTC(),
		}
		if err != nil {
			event.Status = domain.AuditStatusFailure
			event.Detail = err.Error()
		}
		if auditErr := s.audit.Record(ctx, event); auditErr != nil {
			s.logger.Error("audit record failed", "operation", operation, "error", auditErr)
		}
	}
}
