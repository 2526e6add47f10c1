package replication

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/catalog"
	"github.com/tgberrios/datasync/internal/errkind"
	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

// RunFullLoad implements §4.5's full-load path (a)-(f):
// (a) obtain source columns, (b) sync target schema / reset if the diff
// requires it, (c) ensure the target table exists, (d) stream+cleanse
// source rows in chunks, (e) bulk insert, (f) install CDC triggers, record
// the initial watermark, set status=LISTENING_CHANGES.
func RunFullLoad(ctx context.Context, in Input) (Outcome, error) {
	entry := in.Entry
	entityID := entry.Key().String()
	chunkSize := effectiveChunkSize(in.ChunkSize)

	// (a) obtain source columns from C3.
	sourceCols, err := in.Source.GetColumns(ctx, entry.Schema, entry.Table)
	if err != nil {
		return Outcome{}, errkind.TransientErr(entityID, fmt.Errorf("full load: get columns: %w", err))
	}
	if entry.PKColumns == nil {
		if pk, err := in.Source.DetectPrimaryKey(ctx, entry.Schema, entry.Table); err == nil {
			entry.PKColumns = pk
		}
	}

	_, exists, rcErr := in.Target.RowCount(ctx, entry.Schema, entry.Table)
	if rcErr != nil {
		exists = false
	}

	// (b) sync target schema; a diff requiring PK change forces a reset.
	reset := false
	if exists {
		targetCols, diffErr := targetColumnInfo(ctx, in.Target, entry.Schema, entry.Table)
		if diffErr == nil {
			_, applyErr := schema.Sync(ctx, in.Target, entry.Schema, entry.Table, sourceCols, targetCols, true, nil)
			if applyErr != nil {
				if applyErr == schema.ErrPrimaryKeyChange {
					reset = true
				} else {
					return Outcome{}, errkind.SchemaViolationErr(entityID, fmt.Errorf("full load: sync schema: %w", applyErr))
				}
			}
		}
	}
	if reset {
		if err := in.Target.DropTable(ctx, entry.Schema, entry.Table); err != nil {
			return Outcome{}, errkind.PermanentErr(entityID, fmt.Errorf("full load: reset drop: %w", err))
		}
		exists = false
	}

	// (c) ensure target table exists.
	if !exists {
		if err := in.Target.CreateTable(ctx, entry.Schema, entry.Table, sourceCols, entry.PKColumns); err != nil {
			return Outcome{}, errkind.PermanentErr(entityID, fmt.Errorf("full load: create table: %w", err))
		}
	}

	targetTypes := make(map[string]string, len(sourceCols))
	for _, c := range sourceCols {
		targetTypes[c.Name] = c.TargetType
	}
	cols := columnSpecs(targetTypes)
	colNames := columnNames(sourceCols)

	// (d) stream + cleanse, (e) bulk insert.
	var rowsProcessed int64
	streamErr := in.Source.StreamRows(ctx, entry.Schema, entry.Table, chunkSize, func(rows []map[string]any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := make([]target.Row, len(rows))
		for i, r := range rows {
			batch[i] = target.Row(CleanseRow(r, cols))
		}
		n, err := in.Target.InsertRows(ctx, entry.Schema, entry.Table, colNames, batch)
		if err != nil {
			return err
		}
		rowsProcessed += n
		return nil
	})
	if streamErr != nil {
		return Outcome{}, errkind.TransientErr(entityID, fmt.Errorf("full load: stream rows: %w", streamErr))
	}

	// (f) install CDC triggers, record initial watermark, flip status.
	if err := in.Source.InstallChangeTriggers(ctx, entry.Schema, entry.Table, entry.PKColumns); err != nil {
		return Outcome{}, errkind.PermanentErr(entityID, fmt.Errorf("full load: install triggers: %w", err))
	}

	syncMeta := entry.SetLastChangeID(0)
	if err := in.Catalog.UpdateSyncState(ctx, entry.Schema, entry.Table, entry.Engine, catalog.ListeningChanges, syncMeta); err != nil {
		return Outcome{}, errkind.TransientErr(entityID, fmt.Errorf("full load: update sync state: %w", err))
	}

	return Outcome{
		RowsProcessed: rowsProcessed,
		NewStatus:     catalog.ListeningChanges,
		NewWatermark:  0,
		Reset:         reset,
	}, nil
}

// targetColumnInfo introspects the target's current column set via a
// portable information_schema query (every target.Engine dialect that
// backs a relational catalog exposes this view).
func targetColumnInfo(ctx context.Context, t target.Engine, schemaName, table string) ([]schema.ColumnInfo, error) {
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
