// Package replication runs the per-table replication worker: full load for
// tables new to the catalog, incremental CDC apply for tables already
// LISTENING_CHANGES. It generalizes the teacher's internal/analyzer
// Input-struct-in, Result-struct-out shape (internal/analyzer.Analyze) from
// "analyze one SQL statement" to "replicate one catalog entry".
package replication

import (
	"context"

	"github.com/tgberrios/datasync/internal/catalog"
	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/source"
	"github.com/tgberrios/datasync/internal/target"
)

// Input is everything one worker invocation needs to replicate a single
// catalog entry. The worker owns neither Source nor Target's connection
// lifecycle — the caller (Supervisor) opens and closes them per §5's "each
// worker owns its own source and target connections for the duration of a
// job".
type Input struct {
	Entry     catalog.Entry
	Source    source.Engine
	Target    target.Engine
	Catalog   catalog.Store
	ChunkSize int // rows per full-load stream chunk / CDC batch
}

// Outcome is the result of one Run call: how many rows moved, and the
// status/watermark the caller should expect the catalog to now reflect
// (Run already writes these back via Input.Catalog before returning).
type Outcome struct {
	RowsProcessed int64
	NewStatus     catalog.Status
	NewWatermark  int64
	Reset         bool // true if a breaking schema change forced a FULL_LOAD reset
}

func effectiveChunkSize(n int) int {
	if n <= 0 {
		return 1000
	}
	return n
}

// Run dispatches to RunFullLoad or RunIncremental based on Entry.Status,
// matching §4.5's "for each active catalog entry, the worker executes one
// of two paths".
func Run(ctx context.Context, in Input) (Outcome, error) {
	switch in.Entry.Status {
	case catalog.ListeningChanges:
		return RunIncremental(ctx, in)
	default:
		return RunFullLoad(ctx, in)
	}
}

// columnNames extracts the ordered column-name list from a ColumnInfo
// slice, the shape target.Engine.InsertRows/UpsertRows expect.
func columnNames(cols []schema.ColumnInfo) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

