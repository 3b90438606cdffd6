package audit

import (
	"context"
	"fmt"
	"os"

	"seriescore/pkg/domain"
)

// Open selects an audit recorder using environment variables.
//
//	SERIESCORE_AUDIT_DRIVER: none|memory|sqlite|postgres (default none)
//	SERIESCORE_AUDIT_SQLITE_PATH: database path when driver=sqlite
//	SERIESCORE_AUDIT_POSTGRES_DSN: connection string when driver=postgres
//
// The none driver returns a nil recorder; callers treat nil as "audit
// disabled".
func Open(ctx context.Context) (domain.AuditRecorder, error) {
	driver := os.Getenv("SERIESCORE_AUDIT_DRIVER")
	switch driver {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryRecorder(), nil
	case "sqlite":
		return NewSQLiteRecorder(os.Getenv("SERIESCORE_AUDIT_SQLITE_PATH"))
	case "postgres":
		return NewPostgresRecorder(ctx, os.Getenv("SERIESCORE_AUDIT_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown audit driver %s", driver)
	}
}
