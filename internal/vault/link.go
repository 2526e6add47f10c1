package vault

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

func linkColumns(link LinkTable) []schema.ColumnInfo {
	cols := []schema.ColumnInfo{{Name: "link_key", TargetType: "text", IsPrimaryKey: true}}
	for _, ref := range link.Refs {
		cols = append(cols, schema.ColumnInfo{Name: ref.Hub + "_key", TargetType: "text"})
	}
	cols = append(cols,
		schema.ColumnInfo{Name: "load_date", TargetType: "timestamp"},
		schema.ColumnInfo{Name: "record_source", TargetType: "text"},
	)
	return cols
}

func linkColumnNames(link LinkTable) []string {
	names := make([]string, 0)
	for _, c := range linkColumns(link) {
		names = append(names, c.Name)
	}
	return names
}

// buildLink writes one row per distinct referenced-hub-key tuple, hash
// keyed on the concatenation of those hub keys in Refs order. The same
// idempotent-upsert-on-distinct-tuple shape as buildHub.
func (b *Builder) buildLink(ctx context.Context, goldSchema string, link LinkTable, hubsByName map[string]HubTable) (int64, error) {
	silverRows, err := readTable(ctx, b.Warehouse, link.SilverSchema, link.SilverTable)
	if err != nil {
		return 0, fmt.Errorf("read silver %s.%s: %w", link.SilverSchema, link.SilverTable, err)
	}
	for _, ref := range link.Refs {
		if _, ok := hubsByName[ref.Hub]; !ok {
			return 0, fmt.Errorf("link %s references undeclared hub %s", link.Name, ref.Hub)
		}
	}
	if err := b.Warehouse.CreateTable(ctx, goldSchema, link.Name, linkColumns(link), []string{"link_key"}); err != nil {
		return 0, fmt.Errorf("create link table %s: %w", link.Name, err)
	}

	seen := make(map[string]bool)
	var rows []target.Row
	ts := now()
	for _, r := range silverRows {
		hubKeys := make([]string, len(link.Refs))
		for i, ref := range link.Refs {
			hubKeys[i] = hashKey(businessKeyValues(r, ref.BusinessKeys)...)
		}
		linkKey := hashKey(hubKeys...)
		if seen[linkKey] {
			continue
		}
		seen[linkKey] = true
		out := target.Row{"link_key": linkKey, "load_date": ts, "record_source": link.SilverTable}
		for i, ref := range link.Refs {
			out[ref.Hub+"_key"] = hubKeys[i]
		}
		rows = append(rows, out)
	}
	return b.Warehouse.UpsertRows(ctx, goldSchema, link.Name, linkColumnNames(link), []string{"link_key"}, rows)
}
