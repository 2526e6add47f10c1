// Package source defines the polymorphic contract every source dialect
// adapter implements (MySQL concretely, others as stubs), plus the
// identifier-sanitization helper shared by all of them. It is grounded on
// the teacher's internal/mysql package: the same "everything a caller
// needs to introspect and read one table" surface, generalized from a
// MySQL-only function set to an interface so the replication worker and
// schema synchronizer never import a specific driver.
package source

import (
	"context"
	"time"

	"github.com/tgberrios/datasync/internal/schema"
)

// Operation is a ChangeLogRecord's mutation kind.
type Operation string

const (
	OpInsert Operation = "I"
	OpUpdate Operation = "U"
	OpDelete Operation = "D"
)

// ChangeLogRecord is one row-level change read from a source's CDC
// artifact. Consumers must apply records strictly in ChangeID order per
// (schema, table) — Engine.ReadChanges guarantees that ordering within a
// single call.
type ChangeLogRecord struct {
	ChangeID  int64
	Schema    string
	Table     string
	Operation Operation
	// PKValues holds the primary-key column values, or a single
	// "_hash" entry (sha1 of the ordered row image) for PK-less tables.
	PKValues map[string]any
	// RowData is the full post-image for I/U, pre-image for D.
	RowData map[string]any
	ChangedAt time.Time
}

// TableRef names one table discovered on a connection.
type TableRef struct {
	Schema     string
	Table      string
	Connection string
}

// Engine is the contract every source dialect adapter implements.
type Engine interface {
	// DiscoverTables lists every (schema, table, connection) the adapter
	// can see on its configured connection.
	DiscoverTables(ctx context.Context) ([]TableRef, error)

	// DetectPrimaryKey returns the ordered primary-key column list for
	// (schemaName, table), or an empty slice if the table has none.
	DetectPrimaryKey(ctx context.Context, schemaName, table string) ([]string, error)

	// DetectTimeColumn returns the best-guess ordering column from a
	// fixed list of common names, used only as a fallback ordering hint
	// when no better watermark is available.
	DetectTimeColumn(ctx context.Context, schemaName, table string) (string, bool, error)

	// GetColumns returns the ordered column list with target types
	// already mapped to this engine's canonical type names.
	GetColumns(ctx context.Context, schemaName, table string) ([]schema.ColumnInfo, error)

	// ColumnCounts returns the source and target row counts for
	// validation, where targetConn names the target-side connection.
	ColumnCounts(ctx context.Context, schemaName, table, targetConn string) (sourceCount, targetCount int64, err error)

	// ReadChanges returns ChangeLogRecords strictly greater than
	// sinceChangeID, in ascending ChangeID order, capped at maxRows.
	ReadChanges(ctx context.Context, schemaName, table string, sinceChangeID int64, maxRows int) ([]ChangeLogRecord, error)

	// StreamRows reads every row of (schemaName, table) in chunks of
	// chunkSize, ordered by the primary key (or a stable column if there
	// is none), invoking fn once per chunk. fn's error stops iteration and
	// is returned to the caller, so a full-load worker can check
	// ctx.Err() between chunks for cooperative cancellation.
	StreamRows(ctx context.Context, schemaName, table string, chunkSize int, fn func(rows []map[string]any) error) error

	// InstallChangeTriggers provisions the CDC artifact (change-log
	// table plus AFTER INSERT/UPDATE/DELETE triggers) for (schemaName, table), where
	// supported. A no-op return of nil is valid for dialects that do not
	// support triggers.
	InstallChangeTriggers(ctx context.Context, schemaName, table string, pkColumns []string) error

	// Close releases any held connections.
	Close() error
}

// DetectTimeColumnCandidates is the fixed, ordered list of common
// timestamp column names DetectTimeColumn implementations should try, in
// priority order.
var DetectTimeColumnCandidates = []string{
	"updated_at", "modified_at", "last_modified", "created_at", "inserted_at", "timestamp",
}

// SanitizeIdentifier filters ident to the printable-ASCII safe set,
// doubling any embedded single quote so the result is safe to splice into
// a catalog-query string literal (e.g. an information_schema predicate).
// An identifier that sanitizes to empty is rejected.
func SanitizeIdentifier(ident string) (string, bool) {
	out := make([]byte, 0, len(ident))
	for i := 0; i < len(ident); i++ {
		b := ident[i]
		if b < 0x20 || b > 0x7e {
			continue
		}
		if b == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return "", false
	}
	return string(out), true
}
