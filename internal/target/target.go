// Package target defines the polymorphic contract every target warehouse
// dialect implements (PostgreSQL concretely, BigQuery/Redshift/Snowflake
// as stubs). It generalizes the teacher's notion of "a thing you can run
// DDL/DML against and introspect" — dbsafe only ever talks to MySQL as a
// source, so this package has no direct teacher analogue; it is grounded
// on the polymorphic adapter interface style from other_examples'
// redb-open anchor adapter.
package target

import (
	"context"

	"github.com/tgberrios/datasync/internal/schema"
)

// Row is one result row from ExecuteQuery, keyed by column name.
type Row map[string]any

// Engine is the contract every target dialect implements.
type Engine interface {
	CreateSchema(ctx context.Context, name string) error
	CreateTable(ctx context.Context, schemaName, table string, columns []schema.ColumnInfo, primaryKeys []string) error

	// InsertRows is a best-effort bulk insert; it may batch internally
	// and does not deduplicate against existing rows.
	InsertRows(ctx context.Context, schemaName, table string, columns []string, rows []Row) (int64, error)

	// UpsertRows performs an idempotent insert-or-update keyed on
	// primaryKeys: replaying the same rows is safe and leaves the target
	// unchanged after the first successful application.
	UpsertRows(ctx context.Context, schemaName, table string, columns []string, primaryKeys []string, rows []Row) (int64, error)

	// DeleteRows removes rows matching primaryKeys values, used for the
	// incremental CDC delete-then-upsert batch application order.
	DeleteRows(ctx context.Context, schemaName, table string, primaryKeys []string, keys []Row) (int64, error)

	// CreateIndex may be a no-op for dialects without secondary indexes.
	CreateIndex(ctx context.Context, schemaName, table string, columns []string, name string) error

	// CreatePartition may be a no-op for dialects without declarative
	// partitioning at this granularity.
	CreatePartition(ctx context.Context, schemaName, table, partitionColumn string) error

	ExecuteQuery(ctx context.Context, sql string) ([]Row, error)
	ExecuteStatement(ctx context.Context, sql string) error

	QuoteIdentifier(s string) string
	QuoteValue(v any) string

	TestConnection(ctx context.Context) bool

	// DropTable and RowCount satisfy catalog.Target, so any Engine can be
	// passed directly to catalog.Store lifecycle operations.
	DropTable(ctx context.Context, schemaName, table string) error
	RowCount(ctx context.Context, schemaName, table string) (int64, bool, error)

	Close() error
}

// Mapper describes a canonical-type-to-native-type mapping for one
// dialect. No Engine in this module implements it: the postgres engine
// maps types with its package-level NativeType function, called from
// CreateTable.
type Mapper interface {
	Native(canonicalType string, maxLength int) string
}
