package mysqlsrc

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tgberrios/datasync/internal/source"
)

// StreamRows reads (schemaName, table) ordered by primary key (falling back
// to DetectTimeColumn, then to no ordering) in chunks of chunkSize via
// keyset pagination on the first order column, invoking fn per chunk.
func (e *Engine) StreamRows(ctx context.Context, schemaName, table string, chunkSize int, fn func(rows []map[string]any) error) error {
	sSchema, ok := source.SanitizeIdentifier(schemaName)
	if !ok {
		return fmt.Errorf("mysqlsrc: empty sanitized schema identifier")
	}
	sTable, ok := source.SanitizeIdentifier(table)
	if !ok {
		return fmt.Errorf("mysqlsrc: empty sanitized table identifier")
	}
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	qualified := escapeIdentifier(sSchema) + "." + escapeIdentifier(sTable)

	orderCol, err := e.streamOrderColumn(ctx, schemaName, table)
	if err != nil {
		return err
	}

	var lastSeen any
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var query string
		var args []any
		switch {
		case orderCol != "" && lastSeen != nil:
			query = fmt.Sprintf("SELECT * FROM %s WHERE %s > ? ORDER BY %s LIMIT ?", qualified, escapeIdentifier(orderCol), escapeIdentifier(orderCol))
			args = []any{lastSeen, chunkSize}
		case orderCol != "":
			query = fmt.Sprintf("SELECT * FROM %s ORDER BY %s LIMIT ?", qualified, escapeIdentifier(orderCol))
			args = []any{chunkSize}
		default:
			// No stable ordering column: a single unordered pass (tables
			// with no PK and no recognizable time column are assumed
			// small enough to fit one chunk in the full-load path).
			query = fmt.Sprintf("SELECT * FROM %s LIMIT ?", qualified)
			args = []any{chunkSize}
		}

		rows, err := e.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("mysqlsrc: stream rows: %w", err)
		}
		chunk, err := scanRowsToMaps(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return nil
		}
		if err := fn(chunk); err != nil {
			return err
		}
		if orderCol != "" {
			lastSeen = chunk[len(chunk)-1][orderCol]
		}
		if len(chunk) < chunkSize || orderCol == "" {
			return nil
		}
	}
}

// streamOrderColumn picks the first primary-key column, or the best-guess
// time column, as the keyset-pagination cursor; empty means no stable
// ordering is available.
func (e *Engine) streamOrderColumn(ctx context.Context, schemaName, table string) (string, error) {
	pk, err := e.DetectPrimaryKey(ctx, schemaName, table)
	if err != nil {
		return "", err
	}
	if len(pk) > 0 {
		return pk[0], nil
	}
	col, ok, err := e.DetectTimeColumn(ctx, schemaName, table)
	if err != nil {
		return "", err
	}
	if ok {
		return col, nil
	}
	return "", nil
}

// scanRowsToMaps drains rows into column-name-keyed maps, the same generic
// shape ReadChanges uses for its own decoded JSON columns.
func scanRowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("mysqlsrc: stream rows columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("mysqlsrc: scan row: %w", err)
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				m[c] = string(b)
			} else {
				m[c] = vals[i]
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
