package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"seriescore/pkg/domain"
)

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer func() { _ = rec.Close() }()

	ctx := context.Background()
	stamp := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	events := []domain.AuditEvent{
		{RunID: "run-1", Operation: "capture_baseline", ArtifactID: "m-1", Status: domain.AuditStatusSuccess, Duration: 12 * time.Millisecond, Timestamp: stamp},
		{RunID: "run-1", Operation: "apply_ordering", ArtifactID: "", Status: domain.AuditStatusFailure, Detail: "baseline missing", Duration: time.Millisecond, Timestamp: stamp.Add(time.Second)},
	}
	for _, event := range events {
		if err := rec.Record(ctx, event); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := rec.Events(ctx)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	for i, want := range events {
		if got[i].Operation != want.Operation || got[i].Status != want.Status || got[i].Detail != want.Detail {
			t.Errorf("event %d mismatch: got %+v want %+v", i, got[i], want)
		}
		if !got[i].Timestamp.Equal(want.Timestamp) {
			t.Errorf("event %d timestamp %v want %v", i, got[i].Timestamp, want.Timestamp)
		}
		if got[i].Duration != want.Duration {
			t.Errorf("event %d duration %v want %v", i, got[i].Duration, want.Duration)
		}
	}
}

func TestSQLiteRecorderReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.db")
	ctx := context.Background()

	first, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	if err := first.Record(ctx, domain.AuditEvent{RunID: "run-1", Operation: "run_pipeline", Status: domain.AuditStatusSuccess, Timestamp: time.Now()}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatalf("reopen recorder: %v", err)
	}
	defer func() { _ = second.Close() }()
	got, err := second.Events(ctx)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(got) != 1 || got[0].Operation != "run_pipeline" {
		t.Fatalf("expected surviving event, got %+v", got)
	}
}

func TestMemoryRecorderCopiesEvents(t *testing.T) {
	rec := NewMemoryRecorder()
	ctx := context.Background()
	if err := rec.Record(ctx, domain.AuditEvent{RunID: "run-1", Operation: "capture_baseline", Status: domain.AuditStatusSuccess}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got := rec.Events()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	got[0].Operation = "mutated"
	if rec.Events()[0].Operation != "capture_baseline" {
		t.Fatal("Events must return a copy")
	}
}
