package vault

import (
	"context"
	"fmt"
	"strings"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

// fakeTable is one in-memory table: rows only, since vault never
// introspects a column set the way internal/warehouse's silver-build
// step does.
type fakeTable struct {
	rows []target.Row
}

// fakeWarehouse is a minimal in-memory, multi-table target.Engine.
// Mirrors internal/warehouse's test fake of the same name, trimmed to
// the query shapes this package issues (no information_schema branch).
type fakeWarehouse struct {
	tables map[string]*fakeTable
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{tables: make(map[string]*fakeTable)}
}

func tableKey(schemaName, table string) string { return schemaName + "." + table }

func (f *fakeWarehouse) seed(schemaName, table string, rows []target.Row) {
	f.tables[tableKey(schemaName, table)] = &fakeTable{rows: rows}
}

func (f *fakeWarehouse) CreateSchema(ctx context.Context, name string) error { return nil }

func (f *fakeWarehouse) CreateTable(ctx context.Context, schemaName, table string, columns []schema.ColumnInfo, primaryKeys []string) error {
	key := tableKey(schemaName, table)
	if _, ok := f.tables[key]; !ok {
		f.tables[key] = &fakeTable{}
	}
	return nil
}

func (f *fakeWarehouse) DropTable(ctx context.Context, schemaName, table string) error {
	delete(f.tables, tableKey(schemaName, table))
	return nil
}

func (f *fakeWarehouse) InsertRows(ctx context.Context, schemaName, table string, columns []string, rows []target.Row) (int64, error) {
	t := f.tables[tableKey(schemaName, table)]
	if t == nil {
		t = &fakeTable{}
		f.tables[tableKey(schemaName, table)] = t
	}
	t.rows = append(t.rows, rows...)
	return int64(len(rows)), nil
}

func (f *fakeWarehouse) UpsertRows(ctx context.Context, schemaName, table string, columns []string, primaryKeys []string, rows []target.Row) (int64, error) {
	t := f.tables[tableKey(schemaName, table)]
	if t == nil {
		t = &fakeTable{}
		f.tables[tableKey(schemaName, table)] = t
	}
	for _, r := range rows {
		if idx := findByPK(t.rows, primaryKeys, r); idx >= 0 {
			t.rows[idx] = r
		} else {
			t.rows = append(t.rows, r)
		}
	}
	return int64(len(rows)), nil
}

func (f *fakeWarehouse) DeleteRows(ctx context.Context, schemaName, table string, primaryKeys []string, keys []target.Row) (int64, error) {
	t := f.tables[tableKey(schemaName, table)]
	if t == nil {
		return 0, nil
	}
	var n int64
	for _, k := range keys {
		if idx := findByPK(t.rows, primaryKeys, k); idx >= 0 {
			t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
			n++
		}
	}
	return n, nil
}

func findByPK(rows []target.Row, pkCols []string, row target.Row) int {
	for i, existing := range rows {
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

func (f *fakeWarehouse) CreateIndex(ctx context.Context, schemaName, table string, columns []string, name string) error {
	return nil
}

func (f *fakeWarehouse) CreatePartition(ctx context.Context, schemaName, table, partitionColumn string) error {
	return nil
}

func (f *fakeWarehouse) ExecuteQuery(ctx context.Context, sql string) ([]target.Row, error) {
	if !strings.HasPrefix(sql, "SELECT * FROM") {
		return nil, fmt.Errorf("fakeWarehouse: unrecognized query: %s", sql)
	}
	rest := strings.TrimPrefix(sql, "SELECT * FROM ")
	parts := strings.SplitN(rest, ".", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("fakeWarehouse: unparseable table ref: %s", sql)
	}
	t := f.tables[tableKey(parts[0], parts[1])]
	if t == nil {
		return nil, nil
	}
	return append([]target.Row(nil), t.rows...), nil
}

func (f *fakeWarehouse) ExecuteStatement(ctx context.Context, sql string) error { return nil }

func (f *fakeWarehouse) QuoteIdentifier(s string) string { return s }

func (f *fakeWarehouse) QuoteValue(v any) string { return fmt.Sprintf("'%v'", v) }

func (f *fakeWarehouse) TestConnection(ctx context.Context) bool { return true }

func (f *fakeWarehouse) RowCount(ctx context.Context, schemaName, table string) (int64, bool, error) {
	t, ok := f.tables[tableKey(schemaName, table)]
	if !ok {
		return 0, false, nil
	}
	return int64(len(t.rows)), true, nil
}

func (f *fakeWarehouse) Close() error { return nil }
