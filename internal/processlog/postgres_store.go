package processlog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Store backed by a PostgreSQL
// process_log table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-established pool. Callers own the
// pool's lifecycle (Close).
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the process_log table if it does not already
// exist. Idempotent, safe to call on every process start.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS process_log (
	run_id         text PRIMARY KEY,
	entity         text NOT NULL,
	status         text NOT NULL,
	rows_processed bigint NOT NULL DEFAULT 0,
	error          text NOT NULL DEFAULT '',
	metadata       jsonb NOT NULL DEFAULT '{}',
	started_at     timestamptz NOT NULL,
	finished_at    timestamptz
)`)
	if err != nil {
		return fmt.Errorf("processlog: ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Start(ctx context.Context, entity string, metadata map[string]any) (string, error) {
	runID := newRunID()
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("processlog: encode metadata: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO process_log (run_id, entity, status, metadata, started_at)
VALUES ($1,$2,$3,$4,$5)`, runID, entity, Started, metaJSON, now())
	if err != nil {
		return "", fmt.Errorf("processlog: start: %w", err)
	}
	return runID, nil
}

func (s *PostgresStore) Finish(ctx context.Context, runID string, status Status, rowsProcessed int64, errMsg string) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE process_log
SET status=$1, rows_processed=$2, error=$3, finished_at=$4
WHERE run_id=$5 AND status=$6`,
		status, rowsProcessed, errMsg, now(), runID, Started)
	if err != nil {
		return fmt.Errorf("processlog: finish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("processlog: finish: no in-flight run %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entity string) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
SELECT run_id, entity, status, rows_processed, error, metadata, started_at, finished_at
FROM process_log WHERE entity=$1 ORDER BY started_at DESC`, entity)
	if err != nil {
		return nil, fmt.Errorf("processlog: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var metaRaw []byte
		var finishedAt sql.NullTime
		if err := rows.Scan(&r.RunID, &r.Entity, &r.Status, &r.RowsProcessed, &r.Error, &metaRaw, &r.StartedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("processlog: scan: %w", err)
		}
		if finishedAt.Valid {
			r.FinishedAt = finishedAt.Time
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &r.Metadata); err != nil {
				return nil, fmt.Errorf("processlog: decode metadata: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
