package operator

import (
	"context"
	"fmt"
	"sync"

	"github.com/tgberrios/datasync/internal/transform"
)

// lookupCache holds reference tables already loaded this process,
// keyed by connection|engine|schema|table, so a pipeline invoked
// repeatedly against the same reference doesn't reload it every call.
var lookupCache sync.Map // map[string][]transform.Row

func lookupCacheKey(cfg map[string]any) string {
	conn, _ := configString(cfg, "connection")
	engine, _ := configString(cfg, "engine")
	schema, _ := configString(cfg, "schema")
	table, _ := configString(cfg, "table")
	return conn + "|" + engine + "|" + schema + "|" + table
}

// Lookup enriches each row with return_columns from a reference table,
// joined on source_columns (this row) matching lookup_columns (the
// reference). The reference is supplied via reference_data the first
// time a given connection|engine|schema|table combination is seen in
// this process and cached thereafter. Unmatched rows retain the row
// with null return_columns.
type Lookup struct{}

func (Lookup) TypeName() string { return "lookup" }

func (Lookup) Validate(cfg map[string]any) error {
	src := configStringSlice(cfg, "source_columns")
	lk := configStringSlice(cfg, "lookup_columns")
	if len(src) == 0 || len(src) != len(lk) {
		return fmt.Errorf("lookup: source_columns and lookup_columns must be equal-length non-empty lists")
	}
	if len(configStringSlice(cfg, "return_columns")) == 0 {
		return fmt.Errorf("lookup: return_columns must be a non-empty list")
	}
	return nil
}

func (Lookup) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	sourceCols := configStringSlice(cfg, "source_columns")
	lookupCols := configStringSlice(cfg, "lookup_columns")
	returnCols := configStringSlice(cfg, "return_columns")

	key := lookupCacheKey(cfg)
	var reference []transform.Row
	if cached, ok := lookupCache.Load(key); ok {
		reference = cached.([]transform.Row)
	} else {
		reference = rightDataRows(map[string]any{"right_data": cfg["reference_data"]})
		lookupCache.Store(key, reference)
	}

	index := map[string]transform.Row{}
	for _, r := range reference {
		if k, ok := joinKey(r, lookupCols); ok {
			index[k] = r
		}
	}

	out := make([]transform.Row, len(rows))
	for i, r := range rows {
		nr := cloneRow(r)
		key, ok := joinKey(r, sourceCols)
		match, found := transform.Row(nil), false
		if ok {
			match, found = index[key]
		}
		for _, col := range returnCols {
			if found {
				nr[col] = match[col]
			} else {
				nr[col] = nil
			}
		}
		out[i] = nr
	}
	return out, nil
}
