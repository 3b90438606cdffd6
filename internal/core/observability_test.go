package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if rec.Name() == "" {
		t.Fatal("generated name must not be empty")
	}
	ctx := context.Background()
	rec.Observe(ctx, OpApplyOrdering, true, 20*time.Millisecond)
	rec.Observe(ctx, OpApplyOrdering, true, 30*time.Millisecond)
	rec.Observe(ctx, OpApplyOrdering, false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Hour)

	snap := rec.Snapshot()
	if got := snap.DurationsMS[OpApplyOrdering]; got != 55 {
		t.Fatalf("duration total %v", got)
	}
	if got := snap.Results[OpApplyOrdering]["success"]; got != 2 {
		t.Fatalf("success count %d", got)
	}
	if got := snap.Results[OpApplyOrdering]["error"]; got != 1 {
		t.Fatalf("error count %d", got)
	}

	// Snapshot is a copy; mutating it leaves the recorder untouched.
	snap.DurationsMS[OpApplyOrdering] = 0
	if got := rec.Snapshot().DurationsMS[OpApplyOrdering]; got != 55 {
		t.Fatalf("recorder mutated through snapshot: %v", got)
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), OpVerifyOrdering)
	span.End(nil)
	_, span = tracer.Start(context.Background(), OpCaptureBaseline)
	span.End(errors.New("source unreadable"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(entries))
	}
	if entries[0].Operation != OpVerifyOrdering || entries[0].Status != "success" {
		t.Fatalf("first span %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error != "source unreadable" {
		t.Fatalf("second span %+v", entries[1])
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 2 {
		t.Fatalf("expected 2 JSON lines, got %d", lines)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx := context.Background()
	rec.Observe(ctx, OpRunPipeline, true, 150*time.Millisecond)
	rec.Observe(ctx, OpRunPipeline, false, 10*time.Millisecond)
	rec.Observe(ctx, "", true, time.Hour)

	if got := promtestutil.ToFloat64(rec.operations.WithLabelValues(OpRunPipeline, "success")); got != 1 {
		t.Fatalf("success counter %v", got)
	}
	if got := promtestutil.ToFloat64(rec.operations.WithLabelValues(OpRunPipeline, "error")); got != 1 {
		t.Fatalf("error counter %v", got)
	}

	// Double registration on the same registry must fail.
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
