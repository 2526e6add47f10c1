package replication

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tgberrios/datasync/internal/catalog"
	"github.com/tgberrios/datasync/internal/errkind"
	"github.com/tgberrios/datasync/internal/logx"
	"github.com/tgberrios/datasync/internal/source"
	"github.com/tgberrios/datasync/internal/target"
)

// ConnectionOpener opens the per-job source/target connections a worker
// owns for the duration of one entry's job (§5: "each worker owns its own
// source and target connections for the duration of a job").
type ConnectionOpener interface {
	OpenSource(ctx context.Context, connection string) (source.Engine, error)
	OpenTarget(ctx context.Context, connection string) (target.Engine, error)
}

// Supervisor is the root supervisor of §5: it enumerates active catalog
// entries and submits per-table jobs to a bounded worker pool, generalizing
// the teacher's single-statement `analyzer.Analyze` call site into a
// continuously iterated per-table job dispatcher.
type Supervisor struct {
	Catalog   catalog.Store
	Engine    string
	Opener    ConnectionOpener
	PoolSize  int
	ChunkSize int

	// OnOutcome, if set, is called once per entry after its job finishes
	// (success or failure). cmd/sync uses it to count and log failed
	// tables; no alert is raised from a job's outcome.
	OnOutcome func(entry catalog.Entry, outcome Outcome, err error)
}

func (s *Supervisor) poolSize() int {
	if s.PoolSize <= 0 {
		return 4
	}
	return s.PoolSize
}

// RunOnce enumerates every (connection, entry) for Engine and replicates
// each active, non-terminal entry once, bounded by PoolSize concurrent
// jobs. Per-table errors are reported via OnOutcome (runEntry also marks
// the entry ERROR for the kinds it lists), never returned here (§7: "one bad table must not kill the
// run"); only catalog-store errors — encountered while listing work, which
// is cross-cutting — are returned.
func (s *Supervisor) RunOnce(ctx context.Context) error {
	logger := logx.New("replication.supervisor")

	connections, err := s.Catalog.ListConnections(ctx, s.Engine)
	if err != nil {
		return fmt.Errorf("replication: list connections: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.poolSize())

	for _, conn := range connections {
		entries, err := s.Catalog.ListEntries(ctx, s.Engine, conn)
		if err != nil {
			return fmt.Errorf("replication: list entries for %s: %w", conn, err)
		}
		for _, entry := range entries {
			entry := entry
			if !eligible(entry) {
				continue
			}
			g.Go(func() error {
				outcome, runErr := s.runEntry(gctx, entry)
				if s.OnOutcome != nil {
					s.OnOutcome(entry, outcome, runErr)
				}
				if runErr != nil {
					logger.Warn().Str("schema", entry.Schema).Str("table", entry.Table).Err(runErr).Msg("replication job failed")
				}
				return nil
			})
		}
	}

	return g.Wait()
}

// eligible reports whether entry should be scheduled this cycle: active,
// and not parked in one of the sink statuses.
func eligible(entry catalog.Entry) bool {
	if !entry.Active {
		return false
	}
	switch entry.Status {
	case catalog.Skip, catalog.NoData, catalog.Error:
		return false
	default:
		return true
	}
}

// runEntry opens this job's own source/target connections, runs Run, and
// on any errkind.Permanent, errkind.SchemaViolation or errkind.Invariant
// error marks the entry ERROR in the catalog (per §7's error taxonomy).
// Other errors (transient ones included) leave the entry's status as it
// was, so the next cycle retries it. The error is returned to RunOnce,
// which reports it via OnOutcome and does not propagate it further.
func (s *Supervisor) runEntry(ctx context.Context, entry catalog.Entry) (Outcome, error) {
	src, err := s.Opener.OpenSource(ctx, entry.Connection)
	if err != nil {
		return Outcome{}, errkind.TransientErr(entry.Key().String(), fmt.Errorf("open source: %w", err))
	}
	defer src.Close()

	tgt, err := s.Opener.OpenTarget(ctx, entry.Connection)
	if err != nil {
		return Outcome{}, errkind.TransientErr(entry.Key().String(), fmt.Errorf("open target: %w", err))
	}
	defer tgt.Close()

	outcome, err := Run(ctx, Input{
		Entry:     entry,
		Source:    src,
		Target:    tgt,
		Catalog:   s.Catalog,
		ChunkSize: s.ChunkSize,
	})
	if err == nil {
		return outcome, nil
	}

	switch errkind.Of(err) {
	case errkind.Permanent, errkind.SchemaViolation, errkind.Invariant:
		if markErr := s.Catalog.UpdateSyncState(ctx, entry.Schema, entry.Table, entry.Engine, catalog.Error, entry.SyncMetadata); markErr != nil {
			return outcome, fmt.Errorf("%w (also failed to mark ERROR: %v)", err, markErr)
		}
	}
	return outcome, err
}
