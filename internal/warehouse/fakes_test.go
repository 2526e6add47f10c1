package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

// fakeTable is one in-memory table: its column set (for the
// information_schema introspection queries layers.go issues) plus its
// current row set.
type fakeTable struct {
	cols []schema.ColumnInfo
	rows []target.Row
}

// fakeWarehouse is a minimal in-memory, multi-table target.Engine.
// Unlike internal/replication's single-table fakeTarget, warehouse
// builds read and write several tables in the same build (bronze,
// silver, one or more gold tables), so this fake keys storage by
// "schema.table" and gives ExecuteQuery/ExecuteStatement just enough
// parsing to serve the exact query shapes this package issues.
type fakeWarehouse struct {
	tables map[string]*fakeTable
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{tables: make(map[string]*fakeTable)}
}

func tableKey(schemaName, table string) string { return schemaName + "." + table }

// seed registers a table with an initial row set, bypassing CreateTable/
// InsertRows, for setting up a test's bronze input.
func (f *fakeWarehouse) seed(schemaName, table string, cols []schema.ColumnInfo, rows []target.Row) {
	f.tables[tableKey(schemaName, table)] = &fakeTable{cols: cols, rows: rows}
}

func (f *fakeWarehouse) CreateSchema(ctx context.Context, name string) error { return nil }

func (f *fakeWarehouse) CreateTable(ctx context.Context, schemaName, table string, columns []schema.ColumnInfo, primaryKeys []string) error {
	key := tableKey(schemaName, table)
	if existing, ok := f.tables[key]; ok {
		existing.cols = columns
		return nil
	}
	f.tables[key] = &fakeTable{cols: columns}
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

// ExecuteQuery recognizes exactly the two query shapes this package
// issues: the information_schema column introspection and the
// SELECT * [WHERE is_current = true] full-table reads.
func (f *fakeWarehouse) ExecuteQuery(ctx context.Context, sql string) ([]target.Row, error) {
	if strings.Contains(sql, "information_schema.columns") {
		schemaName, table := parseInformationSchemaFilter(sql)
		t := f.tables[tableKey(schemaName, table)]
		if t == nil {
			return nil, nil
		}
		rows := make([]target.Row, len(t.cols))
		for i, c := range t.cols {
			nullable := "NO"
			if c.Nullable {
				nullable = "YES"
			}
			rows[i] = target.Row{"column_name": c.Name, "data_type": c.TargetType, "is_nullable": nullable}
		}
		return rows, nil
	}

	if strings.HasPrefix(sql, "SELECT * FROM") {
		schemaName, table := parseSelectStarFrom(sql)
		t := f.tables[tableKey(schemaName, table)]
		if t == nil {
			return nil, nil
		}
		if strings.Contains(sql, "is_current = true") {
			var out []target.Row
			for _, r := range t.rows {
				if cur, _ := r["is_current"].(bool); cur {
					out = append(out, r)
				}
			}
			return out, nil
		}
		return append([]target.Row(nil), t.rows...), nil
	}

	return nil, fmt.Errorf("fakeWarehouse: unrecognized query: %s", sql)
}

// ExecuteStatement recognizes exactly the SCD2 close-current-version
// UPDATE this package issues.
func (f *fakeWarehouse) ExecuteStatement(ctx context.Context, sql string) error {
	if !strings.HasPrefix(sql, "UPDATE") {
		return fmt.Errorf("fakeWarehouse: unrecognized statement: %s", sql)
	}
	schemaName, table := parseUpdateTarget(sql)
	dimKey := parseQuotedAfter(sql, "dim_key = ")
	t := f.tables[tableKey(schemaName, table)]
	if t == nil {
		return nil
	}
	for i, r := range t.rows {
		if fmt.Sprint(r["dim_key"]) == dimKey {
			if cur, _ := r["is_current"].(bool); cur {
				t.rows[i]["is_current"] = false
				t.rows[i]["valid_to"] = parseQuotedAfter(sql, "valid_to = ")
			}
		}
	}
	return nil
}

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

// parseSelectStarFrom extracts schema/table from "SELECT * FROM schema.table[ WHERE ...]".
func parseSelectStarFrom(sql string) (string, string) {
	rest := strings.TrimPrefix(sql, "SELECT * FROM ")
	rest = strings.SplitN(rest, " ", 2)[0]
	parts := strings.SplitN(rest, ".", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

// parseUpdateTarget extracts schema/table from "UPDATE schema.table SET ...".
func parseUpdateTarget(sql string) (string, string) {
	rest := strings.TrimPrefix(sql, "UPDATE ")
	rest = strings.SplitN(rest, " ", 2)[0]
	parts := strings.SplitN(rest, ".", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

// parseInformationSchemaFilter extracts the quoted table_schema/table_name
// values from the introspection query's WHERE clause.
func parseInformationSchemaFilter(sql string) (string, string) {
	schemaName := parseQuotedAfter(sql, "table_schema = ")
	table := parseQuotedAfter(sql, "table_name = ")
	return schemaName, table
}

// parseQuotedAfter returns the 'single-quoted' token immediately after
// marker in sql.
func parseQuotedAfter(sql, marker string) string {
	idx := strings.Index(sql, marker)
	if idx < 0 {
		return ""
	}
	rest := sql[idx+len(marker):]
	rest = strings.TrimPrefix(rest, "'")
	end := strings.Index(rest, "'")
	if end < 0 {
		return rest
	}
	return rest[:end]
}
