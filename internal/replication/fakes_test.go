package replication

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/source"
	"github.com/tgberrios/datasync/internal/target"
)

// fakeSource is a minimal in-memory source.Engine: a fixed column set, an
// optional full-table row set for StreamRows, and a change log for
// ReadChanges. It exists only to drive replication.RunFullLoad/RunIncremental
// without a real database.
type fakeSource struct {
	cols              []schema.ColumnInfo
	pk                []string
	rows              []map[string]any
	changes           []source.ChangeLogRecord
	streamErr         error
	readChangesErr    error
	triggersInstalled bool
	installErr        error
}

func (f *fakeSource) DiscoverTables(ctx context.Context) ([]source.TableRef, error) { return nil, nil }

func (f *fakeSource) DetectPrimaryKey(ctx context.Context, schemaName, table string) ([]string, error) {
	return f.pk, nil
}

func (f *fakeSource) DetectTimeColumn(ctx context.Context, schemaName, table string) (string, bool, error) {
	return "", false, nil
}

func (f *fakeSource) GetColumns(ctx context.Context, schemaName, table string) ([]schema.ColumnInfo, error) {
	return f.cols, nil
}

func (f *fakeSource) ColumnCounts(ctx context.Context, schemaName, table, targetConn string) (int64, int64, error) {
	return int64(len(f.rows)), int64(len(f.rows)), nil
}

func (f *fakeSource) ReadChanges(ctx context.Context, schemaName, table string, sinceChangeID int64, maxRows int) ([]source.ChangeLogRecord, error) {
	if f.readChangesErr != nil {
		return nil, f.readChangesErr
	}
	var out []source.ChangeLogRecord
	for _, c := range f.changes {
		if c.ChangeID > sinceChangeID {
			out = append(out, c)
		}
	}
	// f.changes is constructed in ascending ChangeID order by every test.
	if len(out) > maxRows {
		out = out[:maxRows]
	}
	return out, nil
}

func (f *fakeSource) StreamRows(ctx context.Context, schemaName, table string, chunkSize int, fn func([]map[string]any) error) error {
	if f.streamErr != nil {
		return f.streamErr
	}
	if len(f.rows) == 0 {
		return nil
	}
	for i := 0; i < len(f.rows); i += chunkSize {
		end := i + chunkSize
		if end > len(f.rows) {
			end = len(f.rows)
		}
		if err := fn(f.rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) InstallChangeTriggers(ctx context.Context, schemaName, table string, pkColumns []string) error {
	f.triggersInstalled = true
	return f.installErr
}

func (f *fakeSource) Close() error { return nil }

// fakeTarget is a minimal in-memory target.Engine: CreateTable/InsertRows/
// UpsertRows/DeleteRows operate on a single in-memory row set keyed by
// whatever primary-key columns the caller passes, which is all
// replication.RunFullLoad/RunIncremental need.
type fakeTarget struct {
	exists bool
	pkCols []string
	rows   []target.Row

	createErr error
	insertErr error
	upsertErr error
	deleteErr error
}

func (f *fakeTarget) CreateSchema(ctx context.Context, name string) error { return nil }

func (f *fakeTarget) CreateTable(ctx context.Context, schemaName, table string, columns []schema.ColumnInfo, primaryKeys []string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.exists = true
	f.pkCols = primaryKeys
	return nil
}

func (f *fakeTarget) InsertRows(ctx context.Context, schemaName, table string, columns []string, rows []target.Row) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.rows = append(f.rows, rows...)
	return int64(len(rows)), nil
}

func (f *fakeTarget) UpsertRows(ctx context.Context, schemaName, table string, columns []string, primaryKeys []string, rows []target.Row) (int64, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	for _, r := range rows {
		if idx := f.findByPK(primaryKeys, r); idx >= 0 {
			f.rows[idx] = r
		} else {
			f.rows = append(f.rows, r)
		}
	}
	return int64(len(rows)), nil
}

func (f *fakeTarget) DeleteRows(ctx context.Context, schemaName, table string, primaryKeys []string, keys []target.Row) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	for _, k := range keys {
		if idx := f.findByPK(primaryKeys, k); idx >= 0 {
			f.rows = append(f.rows[:idx], f.rows[idx+1:]...)
			n++
		}
	}
	return n, nil
}

func (f *fakeTarget) findByPK(pkCols []string, row target.Row) int {
	for i, existing := range f.rows {
		match := true
		for _, c := range pkCols {
			if fmt.Sprint(existing[c]) != fmt.Sprint(row[c]) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func (f *fakeTarget) CreateIndex(ctx context.Context, schemaName, table string, columns []string, name string) error {
	return nil
}

func (f *fakeTarget) CreatePartition(ctx context.Context, schemaName, table, partitionColumn string) error {
	return nil
}

func (f *fakeTarget) ExecuteQuery(ctx context.Context, sql string) ([]target.Row, error) {
	return nil, nil
}

func (f *fakeTarget) ExecuteStatement(ctx context.Context, sql string) error { return nil }

func (f *fakeTarget) QuoteIdentifier(s string) string { return `"` + s + `"` }

func (f *fakeTarget) QuoteValue(v any) string { return fmt.Sprintf("'%v'", v) }

func (f *fakeTarget) TestConnection(ctx context.Context) bool { return true }

func (f *fakeTarget) DropTable(ctx context.Context, schemaName, table string) error {
	f.exists = false
	f.rows = nil
	return nil
}

func (f *fakeTarget) RowCount(ctx context.Context, schemaName, table string) (int64, bool, error) {
	return int64(len(f.rows)), f.exists, nil
}

func (f *fakeTarget) Close() error { return nil }
