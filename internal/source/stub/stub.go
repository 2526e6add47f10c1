// Package stub provides source.Engine placeholders for dialects this
// module documents an interface for but does not ship a wired driver for
// (DB2, MSSQL, MariaDB, Oracle, MongoDB). Each behaves like a real
// adapter at the type level — satisfying source.Engine so the
// replication worker and catalog code compile and type-check against
// them — but every operation returns ErrNotImplemented, since a genuine
// connection to those engines is an external collaborator this module
// does not bundle a driver for.
package stub

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/source"
)

// ErrNotImplemented is returned by every Engine method.
var ErrNotImplemented = fmt.Errorf("stub: dialect not implemented")

// Engine is a named placeholder for one unimplemented dialect.
type Engine struct {
	Dialect string
}

// New returns a stub Engine for the given dialect name (e.g. "db2",
// "mssql", "mariadb", "oracle", "mongodb").
func New(dialect string) *Engine { return &Engine{Dialect: dialect} }

func (e *Engine) err() error { return fmt.Errorf("stub[%s]: %w", e.Dialect, ErrNotImplemented) }

func (e *Engine) DiscoverTables(ctx context.Context) ([]source.TableRef, error) { return nil, e.err() }

func (e *Engine) DetectPrimaryKey(ctx context.Context, schemaName, table string) ([]string, error) {
	return nil, e.err()
}

func (e *Engine) DetectTimeColumn(ctx context.Context, schemaName, table string) (string, bool, error) {
	return "", false, e.err()
}

func (e *Engine) GetColumns(ctx context.Context, schemaName, table string) ([]schema.ColumnInfo, error) {
	return nil, e.err()
}

func (e *Engine) ColumnCounts(ctx context.Context, schemaName, table, targetConn string) (int64, int64, error) {
	return 0, 0, e.err()
}

func (e *Engine) ReadChanges(ctx context.Context, schemaName, table string, sinceChangeID int64, maxRows int) ([]source.ChangeLogRecord, error) {
	return nil, e.err()
}

func (e *Engine) InstallChangeTriggers(ctx context.Context, schemaName, table string, pkColumns []string) error {
	return e.err()
}

func (e *Engine) StreamRows(ctx context.Context, schemaName, table string, chunkSize int, fn func(rows []map[string]any) error) error {
	return e.err()
}

func (e *Engine) Close() error { return nil }

var _ source.Engine = (*Engine)(nil)
