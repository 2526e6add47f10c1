package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

// rowLoadDate extracts a row's load_date as a time.Time, treating any
// unparseable or absent value as the zero time so it never outranks a
// real timestamp.
func rowLoadDate(r target.Row) time.Time {
	t, _ := r["load_date"].(time.Time)
	return t
}

func satelliteColumns(sat SatelliteTable) []schema.ColumnInfo {
	cols := []schema.ColumnInfo{{Name: "parent_key", TargetType: "text", IsPrimaryKey: true}}
	for _, c := range sat.DescriptiveColumns {
		cols = append(cols, schema.ColumnInfo{Name: c, TargetType: "text"})
	}
	cols = append(cols,
		schema.ColumnInfo{Name: "load_date", TargetType: "timestamp", IsPrimaryKey: sat.IsHistorized},
		schema.ColumnInfo{Name: "record_source", TargetType: "text"},
	)
	return cols
}

func satelliteColumnNames(sat SatelliteTable) []string {
	names := make([]string, 0)
	for _, c := range satelliteColumns(sat) {
		names = append(names, c.Name)
	}
	return names
}

func satellitePrimaryKey(sat SatelliteTable) []string {
	if sat.IsHistorized {
		return []string{"parent_key", "load_date"}
	}
	return []string{"parent_key"}
}

// buildSatellite writes descriptive history keyed by parent_key. When
// IsHistorized, a new version is appended only if a descriptive column
// changed since the latest existing version for that parent (append-only,
// no closing of prior versions — distinguishing "current" is left to
// load_date ordering, unlike internal/warehouse's SCD2 which closes the
// prior row explicitly). When not historized, the single current row per
// parent is overwritten in place.
func (b *Builder) buildSatellite(ctx context.Context, goldSchema string, sat SatelliteTable) (int64, error) {
	silverRows, err := readTable(ctx, b.Warehouse, sat.SilverSchema, sat.SilverTable)
	if err != nil {
		return 0, fmt.Errorf("read silver %s.%s: %w", sat.SilverSchema, sat.SilverTable, err)
	}
	if err := b.Warehouse.CreateTable(ctx, goldSchema, sat.Name, satelliteColumns(sat), satellitePrimaryKey(sat)); err != nil {
		return 0, fmt.Errorf("create satellite table %s: %w", sat.Name, err)
	}

	latest, err := latestSatelliteVersions(ctx, b.Warehouse, goldSchema, sat)
	if err != nil {
		return 0, err
	}

	ts := now()
	var rows []target.Row
	for _, r := range silverRows {
		parentKey := hashKey(businessKeyValues(r, sat.ParentBusinessKeys)...)
		existing, ok := latest[parentKey]
		if ok && !satelliteColumnsChanged(sat, existing, r) {
			continue
		}
		out := target.Row{"parent_key": parentKey, "load_date": ts, "record_source": sat.SilverTable}
		for _, c := range sat.DescriptiveColumns {
			out[c] = r[c]
		}
		rows = append(rows, out)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if sat.IsHistorized {
		return b.Warehouse.InsertRows(ctx, goldSchema, sat.Name, satelliteColumnNames(sat), rows)
	}
	return b.Warehouse.UpsertRows(ctx, goldSchema, sat.Name, satelliteColumnNames(sat), []string{"parent_key"}, rows)
}

func satelliteColumnsChanged(sat SatelliteTable, existing, incoming target.Row) bool {
	for _, c := range sat.DescriptiveColumns {
		if fmt.Sprint(existing[c]) != fmt.Sprint(incoming[c]) {
			return true
		}
	}
	return false
}

// latestSatelliteVersions reads every existing row for sat and keeps, per
// parent_key, the one with the greatest load_date.
func latestSatelliteVersions(ctx context.Context, t target.Engine, goldSchema string, sat SatelliteTable) (map[string]target.Row, error) {
	rows, err := readTable(ctx, t, goldSchema, sat.Name)
	if err != nil {
		return nil, fmt.Errorf("read existing satellite %s: %w", sat.Name, err)
	}
	out := make(map[string]target.Row, len(rows))
	for _, r := range rows {
		key, _ := r["parent_key"].(string)
		existing, ok := out[key]
		if !ok || rowLoadDate(r).After(rowLoadDate(existing)) {
			out[key] = r
		}
	}
	return out, nil
}
