package warehouse

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

// buildFact always fully rebuilds a fact table: drop, recreate, resolve
// every DimensionRef against that dimension's current gold rows, insert.
// A fact row whose dimension lookup misses is dropped rather than
// inserted with a dangling key; §4.10 treats referential integrity as
// the fact builder's job, not a constraint left to the database.
func (b *Builder) buildFact(ctx context.Context, model Model, fact FactTable) (int64, error) {
	silverRows, err := readTable(ctx, b.Warehouse, fact.SilverSchema, fact.SilverTable)
	if err != nil {
		return 0, fmt.Errorf("read silver %s.%s: %w", fact.SilverSchema, fact.SilverTable, err)
	}

	dimsByName := make(map[string]DimensionTable, len(model.Dimensions))
	for _, d := range model.Dimensions {
		dimsByName[d.Name] = d
	}

	lookups := make(map[string]map[string]string, len(fact.Refs)) // dimension name -> business-key composite -> dim_key
	for _, ref := range fact.Refs {
		dim, ok := dimsByName[ref.Dimension]
		if !ok {
			return 0, fmt.Errorf("fact %s: undeclared dimension %s", fact.Name, ref.Dimension)
		}
		lookup, err := b.dimensionKeyLookup(ctx, model.GoldSchema, dim)
		if err != nil {
			return 0, fmt.Errorf("fact %s: %w", fact.Name, err)
		}
		lookups[ref.Dimension] = lookup
	}

	cols := factColumns(fact)
	if err := b.Warehouse.DropTable(ctx, model.GoldSchema, fact.Name); err != nil {
		return 0, fmt.Errorf("reset fact table %s: %w", fact.Name, err)
	}
	if err := b.Warehouse.CreateTable(ctx, model.GoldSchema, fact.Name, cols, nil); err != nil {
		return 0, fmt.Errorf("create fact table %s: %w", fact.Name, err)
	}

	var rows []target.Row
	for _, r := range silverRows {
		out, ok := resolveFactRow(r, fact, lookups)
		if !ok {
			continue
		}
		rows = append(rows, out)
	}

	colNames := make([]string, len(cols))
	for i, c := range cols {
		colNames[i] = c.Name
	}
	return b.Warehouse.InsertRows(ctx, model.GoldSchema, fact.Name, colNames, rows)
}

func factColumns(fact FactTable) []schema.ColumnInfo {
	cols := make([]schema.ColumnInfo, 0, len(fact.Refs)+len(fact.Measures))
	for _, ref := range fact.Refs {
		cols = append(cols, schema.ColumnInfo{Name: ref.Dimension + "_key", TargetType: "text"})
	}
	for _, m := range fact.Measures {
		cols = append(cols, schema.ColumnInfo{Name: m, TargetType: "numeric"})
	}
	return cols
}

// resolveFactRow builds one fact row, substituting each DimensionRef's
// business key columns with the resolved surrogate dim_key. ok is false
// when any referenced dimension has no current member matching the
// fact row's business key values.
func resolveFactRow(r target.Row, fact FactTable, lookups map[string]map[string]string) (target.Row, bool) {
	out := make(target.Row, len(fact.Refs)+len(fact.Measures))
	for _, ref := range fact.Refs {
		key := businessKeyComposite(r, ref.BusinessKeys)
		dimKey, ok := lookups[ref.Dimension][key]
		if !ok {
			return nil, false
		}
		out[ref.Dimension+"_key"] = dimKey
	}
	for _, m := range fact.Measures {
		out[m] = r[m]
	}
	return out, true
}

func businessKeyComposite(r target.Row, cols []string) string {
	s := ""
	for i, c := range cols {
		if i > 0 {
			s += "\x1f"
		}
		s += fmt.Sprint(r[c])
	}
	return s
}

// dimensionKeyLookup maps a dimension's business-key composite to its
// current dim_key, for joining fact rows against.
func (b *Builder) dimensionKeyLookup(ctx context.Context, goldSchema string, dim DimensionTable) (map[string]string, error) {
	current, err := currentDimensionRows(ctx, b.Warehouse, goldSchema, dim)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(current))
	for key, row := range current {
		out[businessKeyComposite(row, dim.BusinessKeys)] = key
	}
	return out, nil
}
