package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

// buildPIT rebuilds a point-in-time snapshot: one row per current Hub
// member, widened with each referenced Satellite's most-recent version
// as of pit.AsOf (zero AsOf means "now"). A PIT is always a full
// rebuild, the same snapshot discipline internal/warehouse uses for
// fact tables.
func (b *Builder) buildPIT(ctx context.Context, goldSchema string, pit PointInTimeTable, hubsByName map[string]HubTable, satsByName map[string]SatelliteTable) (int64, error) {
	hub, ok := hubsByName[pit.Hub]
	if !ok {
		return 0, fmt.Errorf("pit %s references undeclared hub %s", pit.Name, pit.Hub)
	}
	asOf := pit.AsOf
	if asOf.IsZero() {
		asOf = now()
	}

	hubRows, err := readTable(ctx, b.Warehouse, goldSchema, hub.Name)
	if err != nil {
		return 0, fmt.Errorf("read hub %s: %w", hub.Name, err)
	}

	satVersions := make(map[string]map[string]target.Row, len(pit.Satellites)) // sat name -> parent_key -> row as of AsOf
	var sats []SatelliteTable
	for _, satName := range pit.Satellites {
		sat, ok := satsByName[satName]
		if !ok {
			return 0, fmt.Errorf("pit %s references undeclared satellite %s", pit.Name, satName)
		}
		sats = append(sats, sat)
		versions, err := asOfSatelliteVersions(ctx, b.Warehouse, goldSchema, sat, asOf)
		if err != nil {
			return 0, err
		}
		satVersions[satName] = versions
	}

	cols := pitColumns(hub, sats)
	if err := b.Warehouse.DropTable(ctx, goldSchema, pit.Name); err != nil {
		return 0, fmt.Errorf("reset pit table %s: %w", pit.Name, err)
	}
	if err := b.Warehouse.CreateTable(ctx, goldSchema, pit.Name, cols, nil); err != nil {
		return 0, fmt.Errorf("create pit table %s: %w", pit.Name, err)
	}

	colNames := make([]string, len(cols))
	for i, c := range cols {
		colNames[i] = c.Name
	}

	var rows []target.Row
	for _, hr := range hubRows {
		hubKey, _ := hr["hub_key"].(string)
		out := target.Row{"hub_key": hubKey, "snapshot_date": asOf}
		for _, k := range hub.BusinessKeys {
			out[k] = hr[k]
		}
		for _, sat := range sats {
			version, ok := satVersions[sat.Name][hubKey]
			for _, c := range sat.DescriptiveColumns {
				colName := sat.Name + "_" + c
				if ok {
					out[colName] = version[c]
				} else {
					out[colName] = nil
				}
			}
		}
		rows = append(rows, out)
	}
	return b.Warehouse.InsertRows(ctx, goldSchema, pit.Name, colNames, rows)
}

func pitColumns(hub HubTable, sats []SatelliteTable) []schema.ColumnInfo {
	cols := []schema.ColumnInfo{{Name: "hub_key", TargetType: "text"}}
	for _, k := range hub.BusinessKeys {
		cols = append(cols, schema.ColumnInfo{Name: k, TargetType: "text"})
	}
	for _, sat := range sats {
		for _, c := range sat.DescriptiveColumns {
			cols = append(cols, schema.ColumnInfo{Name: sat.Name + "_" + c, TargetType: "text", Nullable: true})
		}
	}
	cols = append(cols, schema.ColumnInfo{Name: "snapshot_date", TargetType: "timestamp"})
	return cols
}

// asOfSatelliteVersions returns, per parent_key, the satellite's version
// with the greatest load_date not after asOf.
func asOfSatelliteVersions(ctx context.Context, t target.Engine, goldSchema string, sat SatelliteTable, asOf time.Time) (map[string]target.Row, error) {
	rows, err := readTable(ctx, t, goldSchema, sat.Name)
	if err != nil {
		return nil, fmt.Errorf("read satellite %s: %w", sat.Name, err)
	}
	out := make(map[string]target.Row, len(rows))
	for _, r := range rows {
		if rowLoadDate(r).After(asOf) {
			continue
		}
		key, _ := r["parent_key"].(string)
		existing, ok := out[key]
		if !ok || rowLoadDate(r).After(rowLoadDate(existing)) {
			out[key] = r
		}
	}
	return out, nil
}
