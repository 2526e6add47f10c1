// Package processlog is the append-only build/run log every C10 warehouse
// and vault build writes to: one row per run recording what ran, whether
// it succeeded, and how much data moved. Replication sync cycles do not
// write to it.
// It is grounded on internal/catalog's Store-interface-plus-two-backends
// shape (MemoryStore for tests, PostgresStore for production), reduced to
// an insert-then-update lifecycle since a process log never deletes or
// re-keys a row once started.
package processlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is a run's lifecycle state. STARTED transitions to exactly one
// of SUCCESS or FAILED; no other transition is valid.
type Status string

const (
	Started Status = "STARTED"
	Success Status = "SUCCESS"
	Failed  Status = "FAILED"
)

// Record is one process-log row.
type Record struct {
	RunID         string
	Entity        string // e.g. "warehouse:sales_star" or "vault:customer_hub"
	Status        Status
	RowsProcessed int64
	Error         string
	Metadata      map[string]any
	StartedAt     time.Time
	FinishedAt    time.Time // zero until Finish is called
}

// Store is the process log's persistence contract.
type Store interface {
	// Start appends a new STARTED row for entity and returns its run_id.
	Start(ctx context.Context, entity string, metadata map[string]any) (runID string, err error)

	// Finish transitions runID to status (SUCCESS or FAILED), recording
	// rowsProcessed and errMsg (empty on success) and stamping
	// finished_at. Finish on an already-finished runID is an error.
	Finish(ctx context.Context, runID string, status Status, rowsProcessed int64, errMsg string) error

	// ListByEntity returns every recorded run for entity, most recent
	// first.
	ListByEntity(ctx context.Context, entity string) ([]Record, error)
}

// newRunID generates a fresh run identifier. A package-level var so tests
// can substitute a deterministic generator.
var newRunID = uuid.NewString

// now is a package-level var so tests can freeze the clock.
var now = time.Now

// Run brackets fn with a Start/Finish pair: Start records the attempt,
// fn does the actual (re)load work, and Finish records the outcome.
// fn must leave the target in a consistent state itself — Run only
// brackets the log, it does not roll back partial writes (§4.10's
// "a table is either fully (re)loaded or untouched" is fn's contract to
// uphold, e.g. by building into a staging table and swapping).
func Run(ctx context.Context, store Store, entity string, metadata map[string]any, fn func(ctx context.Context) (rowsProcessed int64, err error)) error {
	runID, err := store.Start(ctx, entity, metadata)
	if err != nil {
		return err
	}

	rows, fnErr := fn(ctx)
	if fnErr != nil {
		_ = store.Finish(ctx, runID, Failed, rows, fnErr.Error())
		return fnErr
	}
	return store.Finish(ctx, runID, Success, rows, "")
}
