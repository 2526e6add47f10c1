package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

// now is a package-level var so dimension build tests can freeze the
// clock for SCD2 valid_from/valid_to assertions.
var now = time.Now

// buildDimension rebuilds one GOLD dimension from its SILVER table under
// the SCD discipline named by dim.SCD. The dimension table is created if
// absent; it is never dropped, since SCD2/SCD3 both depend on rows
// surviving across builds.
func (b *Builder) buildDimension(ctx context.Context, goldSchema string, dim DimensionTable) (int64, error) {
	silverRows, err := readTable(ctx, b.Warehouse, dim.SilverSchema, dim.SilverTable)
	if err != nil {
		return 0, fmt.Errorf("read silver %s.%s: %w", dim.SilverSchema, dim.SilverTable, err)
	}

	cols := dimensionColumns(dim)
	if err := b.Warehouse.CreateTable(ctx, goldSchema, dim.Name, cols, dimensionPrimaryKey(dim)); err != nil {
		return 0, fmt.Errorf("create dimension table %s: %w", dim.Name, err)
	}

	switch dim.SCD {
	case SCD2:
		return b.buildDimensionSCD2(ctx, goldSchema, dim, silverRows)
	case SCD3:
		return b.buildDimensionSCD3(ctx, goldSchema, dim, silverRows)
	default:
		return b.buildDimensionSCD1(ctx, goldSchema, dim, silverRows)
	}
}

func dimensionPrimaryKey(dim DimensionTable) []string {
	if dim.SCD == SCD2 {
		return []string{"dim_key", "valid_from"}
	}
	return []string{"dim_key"}
}

func dimensionColumns(dim DimensionTable) []schema.ColumnInfo {
	cols := []schema.ColumnInfo{{Name: "dim_key", TargetType: "text", IsPrimaryKey: true}}
	for _, k := range dim.BusinessKeys {
		cols = append(cols, schema.ColumnInfo{Name: k, TargetType: "text"})
	}
	for _, c := range dim.TrackedColumns {
		cols = append(cols, schema.ColumnInfo{Name: c, TargetType: "text"})
	}
	switch dim.SCD {
	case SCD2:
		cols = append(cols,
			schema.ColumnInfo{Name: "valid_from", TargetType: "timestamp", IsPrimaryKey: true},
			schema.ColumnInfo{Name: "valid_to", TargetType: "timestamp", Nullable: true},
			schema.ColumnInfo{Name: "is_current", TargetType: "boolean"},
		)
	case SCD3:
		for _, c := range dim.TrackedColumns {
			cols = append(cols, schema.ColumnInfo{Name: c + "_prior", TargetType: "text", Nullable: true})
		}
	}
	return cols
}

func dimensionColumnNames(dim DimensionTable) []string {
	names := make([]string, 0)
	for _, c := range dimensionColumns(dim) {
		names = append(names, c.Name)
	}
	return names
}

// buildDimensionSCD1 overwrites the current row for every business key
// seen, carrying no history.
func (b *Builder) buildDimensionSCD1(ctx context.Context, goldSchema string, dim DimensionTable, silverRows []target.Row) (int64, error) {
	rows := make([]target.Row, len(silverRows))
	for i, r := range silverRows {
		rows[i] = withDimKey(r, dim)
	}
	return b.Warehouse.UpsertRows(ctx, goldSchema, dim.Name, dimensionColumnNames(dim), []string{"dim_key"}, rows)
}

// buildDimensionSCD3 overwrites the current row but first shifts any
// changed tracked column's old value into its "<col>_prior" slot.
func (b *Builder) buildDimensionSCD3(ctx context.Context, goldSchema string, dim DimensionTable, silverRows []target.Row) (int64, error) {
	current, err := currentDimensionRows(ctx, b.Warehouse, goldSchema, dim)
	if err != nil {
		return 0, err
	}

	var rows []target.Row
	for _, r := range silverRows {
		key := dimKey(r, dim.BusinessKeys)
		out := withDimKey(r, dim)
		if existing, ok := current[key]; ok {
			for _, c := range dim.TrackedColumns {
				if fmt.Sprint(existing[c]) != fmt.Sprint(r[c]) {
					out[c+"_prior"] = existing[c]
				} else if v, ok := existing[c+"_prior"]; ok {
					out[c+"_prior"] = v
				}
			}
		}
		rows = append(rows, out)
	}
	return b.Warehouse.UpsertRows(ctx, goldSchema, dim.Name, dimensionColumnNames(dim), []string{"dim_key"}, rows)
}

// buildDimensionSCD2 closes out any current row whose tracked columns
// changed and inserts a fresh current version; unchanged members are
// left untouched, and brand-new members get their first version row.
func (b *Builder) buildDimensionSCD2(ctx context.Context, goldSchema string, dim DimensionTable, silverRows []target.Row) (int64, error) {
	current, err := currentDimensionRows(ctx, b.Warehouse, goldSchema, dim)
	if err != nil {
		return 0, err
	}

	ts := now()
	var inserted []target.Row
	var rowsTouched int64

	for _, r := range silverRows {
		key := dimKey(r, dim.BusinessKeys)
		existing, ok := current[key]
		if ok && !trackedColumnsChanged(dim, existing, r) {
			continue
		}
		if ok {
			if err := b.closeCurrentVersion(ctx, goldSchema, dim, key, existing, ts); err != nil {
				return rowsTouched, err
			}
		}
		out := withDimKey(r, dim)
		out["valid_from"] = ts
		out["valid_to"] = nil
		out["is_current"] = true
		inserted = append(inserted, out)
	}

	if len(inserted) == 0 {
		return rowsTouched, nil
	}
	n, err := b.Warehouse.InsertRows(ctx, goldSchema, dim.Name, dimensionColumnNames(dim), inserted)
	return rowsTouched + n, err
}

func (b *Builder) closeCurrentVersion(ctx context.Context, goldSchema string, dim DimensionTable, key string, existing target.Row, ts time.Time) error {
	stmt := fmt.Sprintf("UPDATE %s.%s SET valid_to = %s, is_current = false WHERE dim_key = %s AND is_current = true",
		b.Warehouse.QuoteIdentifier(goldSchema), b.Warehouse.QuoteIdentifier(dim.Name),
		b.Warehouse.QuoteValue(ts), b.Warehouse.QuoteValue(key))
	return b.Warehouse.ExecuteStatement(ctx, stmt)
}

func trackedColumnsChanged(dim DimensionTable, existing, incoming target.Row) bool {
	for _, c := range dim.TrackedColumns {
		if fmt.Sprint(existing[c]) != fmt.Sprint(incoming[c]) {
			return true
		}
	}
	return false
}

func withDimKey(r target.Row, dim DimensionTable) target.Row {
	out := make(target.Row, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out["dim_key"] = dimKey(r, dim.BusinessKeys)
	return out
}

// currentDimensionRows reads the dimension's present state, keyed by
// dim_key: for SCD1/SCD3 that is every row; for SCD2 only is_current
// rows qualify.
func currentDimensionRows(ctx context.Context, t target.Engine, goldSchema string, dim DimensionTable) (map[string]target.Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s.%s", t.QuoteIdentifier(goldSchema), t.QuoteIdentifier(dim.Name))
	if dim.SCD == SCD2 {
		query += " WHERE is_current = true"
	}
	rows, err := t.ExecuteQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read current dimension rows %s: %w", dim.Name, err)
	}
	out := make(map[string]target.Row, len(rows))
	for _, r := range rows {
		key, _ := r["dim_key"].(string)
		out[key] = r
	}
	return out, nil
}
