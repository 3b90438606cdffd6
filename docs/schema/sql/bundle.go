// Package sqldocs exposes the audit-trail SQL schema directly from the docs
// tree. The audit recorders execute these bundles on startup, so the
// documented schema and the deployed schema cannot drift.
package sqldocs

import _ "embed"

// SQLite contains the audit-trail SQLite DDL bundle.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the audit-trail Postgres DDL bundle.
//
//go:embed postgres.sql
var Postgres string
