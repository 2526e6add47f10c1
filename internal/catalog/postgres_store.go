package catalog

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Store backed by a PostgreSQL catalog
// table, following the logical schema from the external interfaces:
// catalog(schema, table, engine PK, connection, status, active, cluster,
// pk_columns, pk_strategy, size, sync_metadata).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-established pool. Callers own the
// pool's lifecycle (Close).
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the catalog table if it does not already exist.
// It is idempotent and safe to call on every process start.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS catalog (
	schema         text NOT NULL,
	"table"        text NOT NULL,
	engine         text NOT NULL,
	connection     text NOT NULL DEFAULT '',
	status         text NOT NULL DEFAULT 'PENDING',
	active         boolean NOT NULL DEFAULT false,
	cluster        text NOT NULL DEFAULT '',
	pk_columns     jsonb NOT NULL DEFAULT '[]',
	pk_strategy    text NOT NULL DEFAULT 'CDC',
	size           bigint NOT NULL DEFAULT 0,
	sync_metadata  jsonb NOT NULL DEFAULT '{}',
	PRIMARY KEY (schema, "table", engine)
)`)
	if err != nil {
		return fmt.Errorf("catalog: ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListConnections(ctx context.Context, engine string) ([]string, error) {
	if engine == "" {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT connection FROM catalog WHERE engine = $1 ORDER BY connection`, engine)
	if err != nil {
		return nil, fmt.Errorf("catalog: list connections: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var conn string
		if err := rows.Scan(&conn); err != nil {
			return nil, fmt.Errorf("catalog: scan connection: %w", err)
		}
		out = append(out, conn)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListEntries(ctx context.Context, engine, connection string) ([]Entry, error) {
	if engine == "" || connection == "" {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
SELECT schema, "table", engine, connection, status, active, cluster,
       pk_columns, pk_strategy, size, sync_metadata
FROM catalog
WHERE engine = $1 AND connection = $2
ORDER BY schema, "table"`, engine, connection)
	if err != nil {
		return nil, fmt.Errorf("catalog: list entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (Entry, error) {
	var e Entry
	var pkColsRaw, metaRaw []byte
	if err := r.Scan(&e.Schema, &e.Table, &e.Engine, &e.Connection, &e.Status,
		&e.Active, &e.Cluster, &pkColsRaw, &e.PKStrategy, &e.Size, &metaRaw); err != nil {
		return e, fmt.Errorf("catalog: scan entry: %w", err)
	}
	if len(pkColsRaw) > 0 {
		if err := json.Unmarshal(pkColsRaw, &e.PKColumns); err != nil {
			return e, fmt.Errorf("catalog: decode pk_columns: %w", err)
		}
	}
	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &e.SyncMetadata); err != nil {
			return e, fmt.Errorf("catalog: decode sync_metadata: %w", err)
		}
	}
	return e, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, entry Entry, pkColumns []string, active bool, size int64) error {
	if err := validate(entry.Schema, entry.Table, entry.Engine); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("catalog: upsert begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingPK []byte
	err = tx.QueryRow(ctx, `SELECT pk_columns FROM catalog WHERE schema=$1 AND "table"=$2 AND engine=$3`,
		entry.Schema, entry.Table, entry.Engine).Scan(&existingPK)

	pkJSON, err2 := json.Marshal(pkColumns)
	if err2 != nil {
		return fmt.Errorf("catalog: encode pk_columns: %w", err2)
	}

	if err != nil {
		// No existing row: insert fresh with status FULL_LOAD.
		metaJSON, _ := json.Marshal(map[string]any{})
		_, err = tx.Exec(ctx, `
INSERT INTO catalog (schema, "table", engine, connection, status, active, cluster, pk_columns, pk_strategy, size, sync_metadata)
VALUES ($1,$2,$3,$4,$5,$6,'',$7,$8,$9,$10)`,
			entry.Schema, entry.Table, entry.Engine, entry.Connection, FullLoad, active,
			pkJSON, NormalizePKStrategy(entry.PKStrategy), size, metaJSON)
		if err != nil {
			return fmt.Errorf("catalog: insert entry: %w", err)
		}
		return tx.Commit(ctx)
	}

	var storedPK []string
	if len(existingPK) > 0 {
		_ = json.Unmarshal(existingPK, &storedPK)
	}

	if samePK(storedPK, pkColumns) {
		_, err = tx.Exec(ctx, `UPDATE catalog SET size=$1 WHERE schema=$2 AND "table"=$3 AND engine=$4`,
			size, entry.Schema, entry.Table, entry.Engine)
	} else {
		_, err = tx.Exec(ctx, `UPDATE catalog SET size=$1, active=$2, pk_columns=$3, status=$4 WHERE schema=$5 AND "table"=$6 AND engine=$7`,
			size, active, pkJSON, FullLoad, entry.Schema, entry.Table, entry.Engine)
	}
	if err != nil {
		return fmt.Errorf("catalog: update entry: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) UpdateCluster(ctx context.Context, cluster, connection, engine string) error {
	_, err := s.pool.Exec(ctx, `UPDATE catalog SET cluster=$1 WHERE connection=$2 AND engine=$3`, cluster, connection, engine)
	if err != nil {
		return fmt.Errorf("catalog: update cluster: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, schema, table, engine, connection string, dropTarget bool, target Target) error {
	if err := validate(schema, table, engine); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("catalog: delete begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `DELETE FROM catalog WHERE schema=$1 AND "table"=$2 AND engine=$3`
	args := []any{schema, table, engine}
	if connection != "" {
		query += ` AND connection=$4`
		args = append(args, connection)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("catalog: delete entry: %w", err)
	}

	if dropTarget && target != nil {
		if err := target.DropTable(ctx, schema, table); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ReactivateWithData(ctx context.Context, target Target) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog: reactivate begin: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT schema, "table" FROM catalog WHERE active=false AND status=$1`, NoData)
	if err != nil {
		return 0, fmt.Errorf("catalog: reactivate candidates: %w", err)
	}
	type pair struct{ schema, table string }
	var candidates []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.schema, &p.table); err != nil {
			rows.Close()
			return 0, fmt.Errorf("catalog: scan candidate: %w", err)
		}
		candidates = append(candidates, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	reactivated := 0
	for _, c := range candidates {
		count, exists, err := target.RowCount(ctx, c.schema, c.table)
		if err != nil {
			return 0, err
		}
		if !exists || count == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE catalog SET active=true, size=$1 WHERE schema=$2 AND "table"=$3`,
			count, c.schema, c.table); err != nil {
			return 0, fmt.Errorf("catalog: reactivate update: %w", err)
		}
		reactivated++
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("catalog: reactivate commit: %w", err)
	}
	return reactivated, nil
}

func (s *PostgresStore) DeactivateEmpty(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE catalog SET active=false WHERE active=true AND size=0 AND status=$1`, NoData)
	if err != nil {
		return 0, fmt.Errorf("catalog: deactivate empty: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) MarkInactiveAsSkip(ctx context.Context, truncateTarget bool, target Target) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog: mark skip begin: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT schema, "table" FROM catalog WHERE active=false AND status != $1`, Skip)
	if err != nil {
		return 0, fmt.Errorf("catalog: skip candidates: %w", err)
	}
	type pair struct{ schema, table string }
	var candidates []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.schema, &p.table); err != nil {
			rows.Close()
			return 0, fmt.Errorf("catalog: scan skip candidate: %w", err)
		}
		candidates = append(candidates, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	count := 0
	for _, c := range candidates {
		if truncateTarget && target != nil {
			if err := target.DropTable(ctx, c.schema, c.table); err != nil {
				return 0, err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE catalog SET status=$1 WHERE schema=$2 AND "table"=$3`,
			Skip, c.schema, c.table); err != nil {
			return 0, fmt.Errorf("catalog: mark skip: %w", err)
		}
		count++
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("catalog: mark skip commit: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Reset(ctx context.Context, schema, table, engine string, target Target) error {
	if err := validate(schema, table, engine); err != nil {
		return err
	}
	if target != nil {
		if _, exists, _ := target.RowCount(ctx, schema, table); exists {
			if err := target.DropTable(ctx, schema, table); err != nil {
				return err
			}
		}
	}
	_, err := s.pool.Exec(ctx, `UPDATE catalog SET status=$1 WHERE schema=$2 AND "table"=$3 AND engine=$4`,
		FullLoad, schema, table, engine)
	if err != nil {
		return fmt.Errorf("catalog: reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateSyncState(ctx context.Context, schema, table, engine string, status Status, syncMetadata map[string]any) error {
	if err := validate(schema, table, engine); err != nil {
		return err
	}
	metaJSON, err := json.Marshal(syncMetadata)
	if err != nil {
		return fmt.Errorf("catalog: encode sync_metadata: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE catalog SET status=$1, sync_metadata=$2 WHERE schema=$3 AND "table"=$4 AND engine=$5`,
		status, metaJSON, schema, table, engine)
	if err != nil {
		return fmt.Errorf("catalog: update sync state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: update sync state: no entry for %s.%s@%s", schema, table, engine)
	}
	return nil
}

func (s *PostgresStore) MigrateOffsetStrategy(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE catalog SET pk_strategy=$1 WHERE pk_strategy=$2`, PKStrategyCDC, pkStrategyOffset)
	if err != nil {
		return 0, fmt.Errorf("catalog: migrate offset strategy: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) TableSizesBatch(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT schema, "table", size FROM catalog`)
	if err != nil {
		return nil, fmt.Errorf("catalog: table sizes: %w", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var schema, table string
		var size int64
		if err := rows.Scan(&schema, &table, &size); err != nil {
			return nil, fmt.Errorf("catalog: scan size row: %w", err)
		}
		out[sizeKey(schema, table)] = size
	}
	return out, rows.Err()
}
