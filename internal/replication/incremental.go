package replication

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/catalog"
	"github.com/tgberrios/datasync/internal/errkind"
	"github.com/tgberrios/datasync/internal/source"
	"github.com/tgberrios/datasync/internal/target"
)

// RunIncremental implements §4.5's incremental path (a)-(f): read the
// watermark, pull ChangeLogRecords chunked in change_id order, partition
// into deletes/upserts, apply deletes then upserts, advance the watermark
// transactionally with the apply, loop until no more records.
func RunIncremental(ctx context.Context, in Input) (Outcome, error) {
	entry := in.Entry
	entityID := entry.Key().String()
	chunkSize := effectiveChunkSize(in.ChunkSize)

	// (a) read sync_metadata.last_change_id.
	watermark := entry.LastChangeID()

	sourceCols, err := in.Source.GetColumns(ctx, entry.Schema, entry.Table)
	if err != nil {
		return Outcome{}, errkind.TransientErr(entityID, fmt.Errorf("incremental: get columns: %w", err))
	}
	targetTypes := make(map[string]string, len(sourceCols))
	for _, c := range sourceCols {
		targetTypes[c.Name] = c.TargetType
	}
	cols := columnSpecs(targetTypes)
	colNames := columnNames(sourceCols)
	pkCols := entry.PKColumns

	var totalApplied int64

	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		// (b) pull ChangeLogRecords in change_id order, chunked.
		batch, err := in.Source.ReadChanges(ctx, entry.Schema, entry.Table, watermark, chunkSize)
		if err != nil {
			return Outcome{}, errkind.TransientErr(entityID, fmt.Errorf("incremental: read changes: %w", err))
		}
		if len(batch) == 0 {
			break // (f) loop until no more records.
		}

		// (c) partition into deletes (PK tuples / row-hashes) and upserts
		// (post-image rows).
		deletes, upserts, maxID := partitionBatch(batch, pkCols)

		// (d) apply deletes first, then upserts, both keyed by the PK list
		// (or the _hash surrogate for PK-less tables).
		if len(deletes) > 0 {
			deleteKeys := pkColumnsOrHash(pkCols)
			if _, err := in.Target.DeleteRows(ctx, entry.Schema, entry.Table, deleteKeys, deletes); err != nil {
				return Outcome{}, errkind.TransientErr(entityID, fmt.Errorf("incremental: delete rows: %w", err))
			}
		}
		if len(upserts) > 0 {
			cleansed := make([]target.Row, len(upserts))
			for i, r := range upserts {
				cleansed[i] = target.Row(CleanseRow(r, cols))
			}
			upsertKeys := pkColumnsOrHash(pkCols)
			n, err := in.Target.UpsertRows(ctx, entry.Schema, entry.Table, colNames, upsertKeys, cleansed)
			if err != nil {
				return Outcome{}, errkind.TransientErr(entityID, fmt.Errorf("incremental: upsert rows: %w", err))
			}
			totalApplied += n
		}

		// (e) advance last_change_id to the batch maximum in one
		// transaction with the apply: the catalog write-back below is the
		// commit point, so a crash before it leaves the watermark at the
		// last value actually applied (at-least-once replay, per §5).
		watermark = maxID
		syncMeta := entry.SetLastChangeID(watermark)
		if err := in.Catalog.UpdateSyncState(ctx, entry.Schema, entry.Table, entry.Engine, catalog.ListeningChanges, syncMeta); err != nil {
			return Outcome{}, errkind.TransientErr(entityID, fmt.Errorf("incremental: advance watermark: %w", err))
		}

		if len(batch) < chunkSize {
			break
		}
	}

	return Outcome{
		RowsProcessed: totalApplied,
		NewStatus:     catalog.ListeningChanges,
		NewWatermark:  watermark,
	}, nil
}

// partitionBatch splits records into delete keys and upsert rows, tracking
// the highest ChangeID seen so the caller can advance the watermark in one
// step even though deletes and upserts apply separately.
func partitionBatch(batch []source.ChangeLogRecord, pkCols []string) (deletes, upserts []target.Row, maxID int64) {
	for _, rec := range batch {
		if rec.ChangeID > maxID {
			maxID = rec.ChangeID
		}
		switch rec.Operation {
		case source.OpDelete:
			deletes = append(deletes, target.Row(rec.PKValues))
		default: // Insert/Update both apply as an upsert on the post-image.
			upserts = append(upserts, target.Row(rec.RowData))
		}
	}
	return deletes, upserts, maxID
}

// pkColumnsOrHash returns pkCols, or the single "_hash" surrogate column
// for PK-less tables.
func pkColumnsOrHash(pkCols []string) []string {
	if len(pkCols) > 0 {
		return pkCols
	}
	return []string{"_hash"}
}
