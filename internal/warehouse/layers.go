package warehouse

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
	"github.com/tgberrios/datasync/internal/transform"
)

// buildSilver runs model's Pipeline over every declared BRONZE source in
// turn and lands the result in its SILVER table, recreated fresh each
// build (a silver table is always a full rebuild of its bronze input,
// never an incremental patch).
func (b *Builder) buildSilver(ctx context.Context, model Model) (int64, error) {
	var total int64
	for _, src := range model.Sources {
		n, err := b.buildOneSilverTable(ctx, model.Pipeline, src)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (b *Builder) buildOneSilverTable(ctx context.Context, pipeline []transform.Spec, src SilverSource) (int64, error) {
	cols, err := introspectColumns(ctx, b.Warehouse, src.RawSchema, src.RawTable)
	if err != nil {
		return 0, fmt.Errorf("introspect %s.%s: %w", src.RawSchema, src.RawTable, err)
	}

	rawRows, err := readTable(ctx, b.Warehouse, src.RawSchema, src.RawTable)
	if err != nil {
		return 0, fmt.Errorf("read %s.%s: %w", src.RawSchema, src.RawTable, err)
	}

	outRows := toTransformRows(rawRows)
	if len(pipeline) > 0 {
		if b.Transform == nil {
			return 0, fmt.Errorf("silver build for %s.%s has a pipeline but no transform engine configured", src.RawSchema, src.RawTable)
		}
		executionID := fmt.Sprintf("silver-%s-%s", src.SilverSchema, src.SilverTable)
		outRows, err = b.Transform.Execute(ctx, pipeline, outRows, executionID)
		if err != nil {
			return 0, fmt.Errorf("transform %s.%s: %w", src.RawSchema, src.RawTable, err)
		}
	}

	if err := b.Warehouse.CreateSchema(ctx, src.SilverSchema); err != nil {
		return 0, fmt.Errorf("create silver schema %s: %w", src.SilverSchema, err)
	}
	if err := b.Warehouse.DropTable(ctx, src.SilverSchema, src.SilverTable); err != nil {
		return 0, fmt.Errorf("reset silver table %s.%s: %w", src.SilverSchema, src.SilverTable, err)
	}
	if err := b.Warehouse.CreateTable(ctx, src.SilverSchema, src.SilverTable, cols, nil); err != nil {
		return 0, fmt.Errorf("create silver table %s.%s: %w", src.SilverSchema, src.SilverTable, err)
	}

	colNames := make([]string, len(cols))
	for i, c := range cols {
		colNames[i] = c.Name
	}
	targetRows := make([]target.Row, len(outRows))
	for i, r := range outRows {
		targetRows[i] = target.Row(r)
	}
	n, err := b.Warehouse.InsertRows(ctx, src.SilverSchema, src.SilverTable, colNames, targetRows)
	if err != nil {
		return 0, fmt.Errorf("insert silver rows %s.%s: %w", src.SilverSchema, src.SilverTable, err)
	}
	return n, nil
}

func toTransformRows(rows []target.Row) []transform.Row {
	out := make([]transform.Row, len(rows))
	for i, r := range rows {
		out[i] = transform.Row(r)
	}
	return out
}

// readTable is a full unfiltered read of one table, used for BRONZE
// reads and for reading a SILVER table back out when building GOLD.
// Models in this layer are sized for dimension/fact tables, not raw
// fact-scale event streams, so a single SELECT * is acceptable; §4.10
// names no chunking requirement for warehouse builds the way C5's
// full-load path does.
func readTable(ctx context.Context, t target.Engine, schemaName, table string) ([]target.Row, error) {
	return t.ExecuteQuery(ctx, fmt.Sprintf("SELECT * FROM %s.%s",
		t.QuoteIdentifier(schemaName), t.QuoteIdentifier(table)))
}

// introspectColumns mirrors internal/replication's targetColumnInfo: a
// portable information_schema query every relational target.Engine
// dialect backs.
func introspectColumns(ctx context.Context, t target.Engine, schemaName, table string) ([]schema.ColumnInfo, error) {
	rows, err := t.ExecuteQuery(ctx, fmt.Sprintf(
		"SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = %s AND table_name = %s",
		t.QuoteValue(schemaName), t.QuoteValue(table)))
	if err != nil {
		return nil, err
	}
	out := make([]schema.ColumnInfo, 0, len(rows))
	for _, r := range rows {
		name, _ := r["column_name"].(string)
		dataType, _ := r["data_type"].(string)
		nullableStr, _ := r["is_nullable"].(string)
		out = append(out, schema.ColumnInfo{
			Name:       name,
			TargetType: dataType,
			Nullable:   nullableStr == "YES",
		})
	}
	return out, nil
}
