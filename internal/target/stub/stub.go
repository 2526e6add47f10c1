// Package stub provides target.Engine placeholders for dialects this
// module documents but does not ship a wired client for (BigQuery,
// Redshift, Snowflake). Every operation returns ErrNotImplemented.
package stub

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

var ErrNotImplemented = fmt.Errorf("stub: dialect not implemented")

type Engine struct {
	Dialect string
}

func New(dialect string) *Engine { return &Engine{Dialect: dialect} }

func (e *Engine) err() error { return fmt.Errorf("stub[%s]: %w", e.Dialect, ErrNotImplemented) }

func (e *Engine) CreateSchema(ctx context.Context, name string) error { return e.err() }

func (e *Engine) CreateTable(ctx context.Context, schemaName, table string, columns []schema.ColumnInfo, primaryKeys []string) error {
	return e.err()
}

func (e *Engine) InsertRows(ctx context.Context, schemaName, table string, columns []string, rows []target.Row) (int64, error) {
	return 0, e.err()
}

func (e *Engine) UpsertRows(ctx context.Context, schemaName, table string, columns []string, primaryKeys []string, rows []target.Row) (int64, error) {
	return 0, e.err()
}

func (e *Engine) DeleteRows(ctx context.Context, schemaName, table string, primaryKeys []string, keys []target.Row) (int64, error) {
	return 0, e.err()
}

func (e *Engine) CreateIndex(ctx context.Context, schemaName, table string, columns []string, name string) error {
	return e.err()
}

func (e *Engine) CreatePartition(ctx context.Context, schemaName, table, partitionColumn string) error {
	return e.err()
}

func (e *Engine) ExecuteQuery(ctx context.Context, sql string) ([]target.Row, error) {
	return nil, e.err()
}

func (e *Engine) ExecuteStatement(ctx context.Context, sql string) error { return e.err() }

func (e *Engine) QuoteIdentifier(s string) string { return `"` + s + `"` }
func (e *Engine) QuoteValue(v any) string          { return fmt.Sprintf("%v", v) }

func (e *Engine) TestConnection(ctx context.Context) bool { return false }

func (e *Engine) DropTable(ctx context.Context, schemaName, table string) error { return e.err() }

func (e *Engine) RowCount(ctx context.Context, schemaName, table string) (int64, bool, error) {
	return 0, false, e.err()
}

func (e *Engine) Close() error { return nil }

var _ target.Engine = (*Engine)(nil)
