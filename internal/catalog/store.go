package catalog

import "context"

// Target is the slice of the target warehouse engine the catalog store
// needs for lifecycle operations (delete with drop_target, reset). It is
// a narrow interface rather than a dependency on internal/target so the
// catalog package stays importable without pulling in every dialect.
type Target interface {
	DropTable(ctx context.Context, schema, table string) error
	RowCount(ctx context.Context, schema, table string) (int64, bool, error)
}

// Store is the metadata catalog's persistence contract. Every mutation
// runs in its own transaction; any store error is returned to the caller
// with no partial commit.
type Store interface {
	// ListConnections returns the distinct source connection descriptors
	// tracked for engine. An empty engine yields an empty result.
	ListConnections(ctx context.Context, engine string) ([]string, error)

	// ListEntries returns entries for (engine, connection) ordered by
	// (schema, table). Either empty argument yields an empty result.
	ListEntries(ctx context.Context, engine, connection string) ([]Entry, error)

	// Upsert inserts entry with status=FULL_LOAD if absent. If present
	// and pkColumns matches the stored set, only size is updated. If
	// pkColumns changed, status resets to FULL_LOAD. Any empty
	// identifying field aborts the write without side effects.
	Upsert(ctx context.Context, entry Entry, pkColumns []string, active bool, size int64) error

	// UpdateCluster bulk-updates the cluster label on every row matching
	// (connection, engine).
	UpdateCluster(ctx context.Context, cluster, connection, engine string) error

	// Delete removes rows matching the filter. A zero-value field in
	// filter is a wildcard except Schema/Table/Engine, which are
	// required. If dropTarget, it also issues a DROP via target.
	Delete(ctx context.Context, schema, table, engine, connection string, dropTarget bool, target Target) error

	// ReactivateWithData probes target for every (inactive, NO_DATA)
	// entry and flips it active iff the target reports any row.
	ReactivateWithData(ctx context.Context, target Target) (reactivated int, err error)

	// DeactivateEmpty transitions active entries with Size == 0 and
	// status NoData to inactive.
	DeactivateEmpty(ctx context.Context) (count int, err error)

	// MarkInactiveAsSkip transitions inactive entries to SKIP, optionally
	// truncating (dropping and letting the worker recreate) the target
	// table for each.
	MarkInactiveAsSkip(ctx context.Context, truncateTarget bool, target Target) (count int, err error)

	// Reset drops the target table if present and sets status back to
	// FULL_LOAD, preserving PK metadata.
	Reset(ctx context.Context, schema, table, engine string, target Target) error

	// TableSizesBatch returns a map of "schema|table" to row count over
	// all tracked targets.
	TableSizesBatch(ctx context.Context) (map[string]int64, error)

	// UpdateSyncState is the replication worker's write-back after a full
	// load or incremental batch: it sets status and replaces
	// sync_metadata in one write, so a watermark advance and its status
	// transition are never observed independently.
	UpdateSyncState(ctx context.Context, schema, table, engine string, status Status, syncMetadata map[string]any) error

	// MigrateOffsetStrategy rewrites every stored pk_strategy=OFFSET row
	// to CDC, the cleanup-offsets CLI verb's one job. Entries already on
	// CDC are untouched. Returns the number of rows migrated.
	MigrateOffsetStrategy(ctx context.Context) (migrated int, err error)
}

func sizeKey(schema, table string) string { return schema + "|" + table }
