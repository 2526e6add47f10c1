package vault

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

// buildBridge rebuilds a multi-link snapshot: one row per (Hub member,
// Link, other Hub the Link currently connects it to). Links carry no
// load_date history of their own (a Link row's mere existence is the
// fact, per buildLink's idempotent-insert-on-distinct-tuple shape), so
// "as of" only selects which snapshot_date is stamped on the output,
// not which Link rows qualify.
func (b *Builder) buildBridge(ctx context.Context, goldSchema string, bridge BridgeTable, linksByName map[string]LinkTable) (int64, error) {
	asOf := bridge.AsOf
	if asOf.IsZero() {
		asOf = now()
	}

	hubRows, err := readTable(ctx, b.Warehouse, goldSchema, bridge.Hub)
	if err != nil {
		return 0, fmt.Errorf("read hub %s: %w", bridge.Hub, err)
	}

	var links []LinkTable
	for _, name := range bridge.Links {
		link, ok := linksByName[name]
		if !ok {
			return 0, fmt.Errorf("bridge %s references undeclared link %s", bridge.Name, name)
		}
		links = append(links, link)
	}

	cols := bridgeColumns()
	if err := b.Warehouse.DropTable(ctx, goldSchema, bridge.Name); err != nil {
		return 0, fmt.Errorf("reset bridge table %s: %w", bridge.Name, err)
	}
	if err := b.Warehouse.CreateTable(ctx, goldSchema, bridge.Name, cols, nil); err != nil {
		return 0, fmt.Errorf("create bridge table %s: %w", bridge.Name, err)
	}
	colNames := make([]string, len(cols))
	for i, c := range cols {
		colNames[i] = c.Name
	}

	var rows []target.Row
	for _, link := range links {
		hubKeyCol := bridge.Hub + "_key"
		linkRows, err := readTable(ctx, b.Warehouse, goldSchema, link.Name)
		if err != nil {
			return 0, fmt.Errorf("read link %s: %w", link.Name, err)
		}
		hubKeys := make(map[string]bool, len(hubRows))
		for _, hr := range hubRows {
			if k, _ := hr["hub_key"].(string); k != "" {
				hubKeys[k] = true
			}
		}
		for _, lr := range linkRows {
			hubKey, _ := lr[hubKeyCol].(string)
			if !hubKeys[hubKey] {
				continue
			}
			rows = append(rows, target.Row{
				"hub_key":       hubKey,
				"link_name":     link.Name,
				"link_key":      lr["link_key"],
				"snapshot_date": asOf,
			})
		}
	}
	return b.Warehouse.InsertRows(ctx, goldSchema, bridge.Name, colNames, rows)
}

func bridgeColumns() []schema.ColumnInfo {
	return []schema.ColumnInfo{
		{Name: "hub_key", TargetType: "text"},
		{Name: "link_name", TargetType: "text"},
		{Name: "link_key", TargetType: "text"},
		{Name: "snapshot_date", TargetType: "timestamp"},
	}
}
