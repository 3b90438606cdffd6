package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	sqldocs "seriescore/docs/schema/sql"
	"seriescore/pkg/domain"
)

// SQLiteRecorder appends audit events to a local SQLite database. One row
// per event; rows are never updated or deleted by this package.
type SQLiteRecorder struct {
	db   *sql.DB
	path string
}

// NewSQLiteRecorder opens (creating if needed) the audit database at path.
// An empty path defaults to seriescore_audit.db in the working directory.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if path == "" {
		path = "seriescore_audit.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(sqldocs.SQLite); err != nil {
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &SQLiteRecorder{db: db, path: path}, nil
}

// Record implements domain.AuditRecorder.
func (r *SQLiteRecorder) Record(ctx context.Context, event domain.AuditEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (run_id, operation, artifact_id, status, detail, duration_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.RunID, event.Operation, event.ArtifactID, string(event.Status), event.Detail,
		float64(event.Duration)/float64(time.Millisecond),
		event.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Events returns all recorded events in insertion order. Used by tests and
// forensic tooling.
func (r *SQLiteRecorder) Events(ctx context.Context) ([]domain.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, operation, artifact_id, status, detail, duration_ms, recorded_at
		 FROM audit_events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var events []domain.AuditEvent
	for rows.Next() {
		var (
			event      domain.AuditEvent
			status     string
			durationMS float64
			recordedAt string
		)
		if err := rows.Scan(&event.RunID, &event.Operation, &event.ArtifactID, &status, &event.Detail, &durationMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Status = domain.AuditStatus(status)
		event.Duration = time.Duration(durationMS * float64(time.Millisecond))
		if ts, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			event.Timestamp = ts
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Close releases the underlying database handle.
func (r *SQLiteRecorder) Close() error { return r.db.Close() }
