// Package audit provides durable recorders for pipeline audit events.
// Recorders satisfy domain.AuditRecorder; drivers are selected through
// environment configuration mirroring the blob store factories.
package audit

import (
	"context"
	"sync"

	"seriescore/pkg/domain"
)

// MemoryRecorder retains events in memory. Intended for tests and for runs
// where durable audit storage is not configured.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

// NewMemoryRecorder constructs an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

// Record implements domain.AuditRecorder.
func (r *MemoryRecorder) Record(_ context.Context, event domain.AuditEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of all recorded events.
func (r *MemoryRecorder) Events() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditEvent, len(r.events))
	copy(out, r.events)
	return out
}
