package domain

import (
	"context"
	"time"
)

// EntryExtractor supplies one immutable entry per source instance. Reading
// source image files and raw tag extraction happen behind this boundary;
// implementations must never mutate their sources.
type EntryExtractor interface {
	Extract(ctx context.Context, source string) ([]Entry, error)
}

// Clock abstracts wall-clock reads so pipeline outputs are reproducible
// under test.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the function's current time.
func (f ClockFunc) Now() time.Time { return f() }

// IDGenerator produces run-scoped artifact identifiers.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a function to the IDGenerator interface.
type IDFunc func() string

// NewID returns the function's next identifier.
func (f IDFunc) NewID() string { return f() }

// Logger is a minimal leveled structured logging sink. Output format is the
// caller's concern and never leaks into the verified JSON artifacts.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger discards all log output.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// AuditStatus marks the outcome of an audited pipeline operation.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// AuditEvent is one structured record of a pipeline stage execution.
type AuditEvent struct {
	RunID      string
	Operation  string
	ArtifactID string
	Status     AuditStatus
	Detail     string
	Duration   time.Duration
	Timestamp  time.Time
}

// AuditRecorder receives one event per audited pipeline operation.
// Durable persistence of events is a collaborator concern.
type AuditRecorder interface {
	Record(ctx context.Context, event AuditEvent) error
}
