package mysqlsrc

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/source"
)

// escapeIdentifier wraps a MySQL identifier in backticks, doubling any
// embedded backtick, adapted verbatim from the teacher's
// internal/mysql.escapeIdentifier.
func escapeIdentifier(identifier string) string {
	escaped := strings.ReplaceAll(identifier, "`", "``")
	return "`" + escaped + "`"
}

// DiscoverTables lists every base table in every non-system schema visible
// to the connection.
func (e *Engine) DiscoverTables(ctx context.Context) ([]source.TableRef, error) {
	rows, err := e.db.QueryContext(ctx, `
SELECT table_schema, table_name
FROM information_schema.tables
WHERE table_type = 'BASE TABLE'
  AND table_schema NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
ORDER BY table_schema, table_name`)
	if err != nil {
		return nil, fmt.Errorf("mysqlsrc: discover tables: %w", err)
	}
	defer rows.Close()

	var out []source.TableRef
	for rows.Next() {
		var ref source.TableRef
		if err := rows.Scan(&ref.Schema, &ref.Table); err != nil {
			return nil, fmt.Errorf("mysqlsrc: scan table ref: %w", err)
		}
		ref.Connection = e.cfg.Name
		out = append(out, ref)
	}
	return out, rows.Err()
}

// DetectPrimaryKey returns the ordered PK column list, empty if none.
func (e *Engine) DetectPrimaryKey(ctx context.Context, schemaName, table string) ([]string, error) {
	sSchema, ok := source.SanitizeIdentifier(schemaName)
	if !ok {
		return nil, fmt.Errorf("mysqlsrc: empty sanitized schema identifier")
	}
	sTable, ok := source.SanitizeIdentifier(table)
	if !ok {
		return nil, fmt.Errorf("mysqlsrc: empty sanitized table identifier")
	}

	rows, err := e.db.QueryContext(ctx, `
SELECT column_name
FROM information_schema.key_column_usage
WHERE table_schema = ? AND table_name = ? AND constraint_name = 'PRIMARY'
ORDER BY ordinal_position`, sSchema, sTable)
	if err != nil {
		return nil, fmt.Errorf("mysqlsrc: detect primary key: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("mysqlsrc: scan pk column: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// DetectTimeColumn tries each candidate in source.DetectTimeColumnCandidates
// order and returns the first one present on the table.
func (e *Engine) DetectTimeColumn(ctx context.Context, schemaName, table string) (string, bool, error) {
	cols, err := e.GetColumns(ctx, schemaName, table)
	if err != nil {
		return "", false, err
	}
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[strings.ToLower(c.Name)] = true
	}
	for _, candidate := range source.DetectTimeColumnCandidates {
		if present[candidate] {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

// GetColumns returns the ordered column list with MySQL native types
// mapped to canonical target type names.
func (e *Engine) GetColumns(ctx context.Context, schemaName, table string) ([]schema.ColumnInfo, error) {
	sSchema, ok := source.SanitizeIdentifier(schemaName)
	if !ok {
		return nil, fmt.Errorf("mysqlsrc: empty sanitized schema identifier")
	}
	sTable, ok := source.SanitizeIdentifier(table)
	if !ok {
		return nil, fmt.Errorf("mysqlsrc: empty sanitized table identifier")
	}

	pk, err := e.DetectPrimaryKey(ctx, schemaName, table)
	if err != nil {
		return nil, err
	}
	pkSet := make(map[string]bool, len(pk))
	for _, c := range pk {
		pkSet[c] = true
	}

	rows, err := e.db.QueryContext(ctx, `
SELECT column_name, data_type, is_nullable, column_default, ordinal_position,
       character_maximum_length, numeric_precision, numeric_scale
FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`, sSchema, sTable)
	if err != nil {
		return nil, fmt.Errorf("mysqlsrc: get columns: %w", err)
	}
	defer rows.Close()

	var out []schema.ColumnInfo
	for rows.Next() {
		var (
			name, dataType, isNullable string
			def                        sql.NullString
			ordinal                    int
			maxLen, precision, scale   sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &isNullable, &def, &ordinal, &maxLen, &precision, &scale); err != nil {
			return nil, fmt.Errorf("mysqlsrc: scan column: %w", err)
		}
		out = append(out, schema.ColumnInfo{
			Name:             name,
			SourceType:       dataType,
			TargetType:       mapType(dataType, int(maxLen.Int64), int(precision.Int64), int(scale.Int64)),
			Nullable:         isNullable == "YES",
			Default:          def.String,
			Ordinal:          ordinal,
			MaxLength:        int(maxLen.Int64),
			NumericPrecision: int(precision.Int64),
			NumericScale:     int(scale.Int64),
			IsPrimaryKey:     pkSet[name],
		})
	}
	return out, rows.Err()
}

// ColumnCounts returns the source row count for (schemaName, table). The
// target count it returns is always 0: targetConn is not consulted, and
// mysqlsrc only reports its own side.
func (e *Engine) ColumnCounts(ctx context.Context, schemaName, table, targetConn string) (int64, int64, error) {
	sSchema, ok := source.SanitizeIdentifier(schemaName)
	if !ok {
		return 0, 0, fmt.Errorf("mysqlsrc: empty sanitized schema identifier")
	}
	sTable, ok := source.SanitizeIdentifier(table)
	if !ok {
		return 0, 0, fmt.Errorf("mysqlsrc: empty sanitized table identifier")
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", escapeIdentifier(sSchema), escapeIdentifier(sTable))
	if err := e.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("mysqlsrc: source row count: %w", err)
	}
	// The target count is not this adapter's to know; it returns 0 and
	// lets the caller merge with target.Engine.RowCount(targetConn, ...).
	return count, 0, nil
}
