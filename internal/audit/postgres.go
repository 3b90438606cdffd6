package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	sqldocs "seriescore/docs/schema/sql"
	"seriescore/pkg/domain"
)

const (
	postgresDriver     = "pgx"
	defaultPostgresDSN = "postgres://localhost/seriescore?sslmode=disable"
)

// PostgresRecorder appends audit events to a Postgres table through the pgx
// database/sql driver.
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder opens a Postgres-backed recorder using the provided
// DSN (falls back to a local default) and ensures the audit table exists.
func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open(postgresDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqldocs.Postgres); err != nil {
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &PostgresRecorder{db: db}, nil
}

// Record implements domain.AuditRecorder.
func (r *PostgresRecorder) Record(ctx context.Context, event domain.AuditEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (run_id, operation, artifact_id, status, detail, duration_ms, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.RunID, event.Operation, event.ArtifactID, string(event.Status), event.Detail,
		float64(event.Duration)/float64(time.Millisecond),
		event.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (r *PostgresRecorder) DB() *sql.DB { return r.db }

// Close releases the underlying database handle.
func (r *PostgresRecorder) Close() error { return r.db.Close() }
