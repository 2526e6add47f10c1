package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

// now is a package-level var so satellite/PIT/bridge tests can freeze
// the clock for load_date/snapshot_date assertions.
var now = time.Now

func hubColumns(hub HubTable) []schema.ColumnInfo {
	cols := []schema.ColumnInfo{{Name: "hub_key", TargetType: "text", IsPrimaryKey: true}}
	for _, k := range hub.BusinessKeys {
		cols = append(cols, schema.ColumnInfo{Name: k, TargetType: "text"})
	}
	cols = append(cols,
		schema.ColumnInfo{Name: "load_date", TargetType: "timestamp"},
		schema.ColumnInfo{Name: "record_source", TargetType: "text"},
	)
	return cols
}

func hubColumnNames(hub HubTable) []string {
	names := make([]string, 0)
	for _, c := range hubColumns(hub) {
		names = append(names, c.Name)
	}
	return names
}

// buildHub writes one row per distinct business-key tuple seen in the
// hub's silver source. Re-running against the same source adds no rows:
// UpsertRows keyed on hub_key makes the insert idempotent, and since a
// hub carries no descriptive attributes there is nothing to overwrite
// either.
func (b *Builder) buildHub(ctx context.Context, goldSchema string, hub HubTable) (int64, error) {
	silverRows, err := readTable(ctx, b.Warehouse, hub.SilverSchema, hub.SilverTable)
	if err != nil {
		return 0, fmt.Errorf("read silver %s.%s: %w", hub.SilverSchema, hub.SilverTable, err)
	}
	if err := b.Warehouse.CreateTable(ctx, goldSchema, hub.Name, hubColumns(hub), []string{"hub_key"}); err != nil {
		return 0, fmt.Errorf("create hub table %s: %w", hub.Name, err)
	}

	seen := make(map[string]bool)
	var rows []target.Row
	ts := now()
	for _, r := range silverRows {
		key := hashKey(businessKeyValues(r, hub.BusinessKeys)...)
		if seen[key] {
			continue
		}
		seen[key] = true
		out := target.Row{"hub_key": key, "load_date": ts, "record_source": hub.SilverTable}
		for _, k := range hub.BusinessKeys {
			out[k] = r[k]
		}
		rows = append(rows, out)
	}
	return b.Warehouse.UpsertRows(ctx, goldSchema, hub.Name, hubColumnNames(hub), []string{"hub_key"}, rows)
}
