package cmd

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgberrios/datasync/internal/alerting"
	"github.com/tgberrios/datasync/internal/catalog"
	"github.com/tgberrios/datasync/internal/config"
	"github.com/tgberrios/datasync/internal/processlog"
)

// stores bundles every long-lived store a subcommand needs, plus the
// shared metadata pool (nil when running on the in-memory fallback) so
// callers can Close it on the way out.
type stores struct {
	Catalog    catalog.Store
	ProcessLog processlog.Store
	Alerting   alerting.Store
	pool       *pgxpool.Pool
}

func (s *stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// openStores wires catalog/processlog/alerting against the configured
// metadata Postgres connection, falling back to the in-memory stores
// when Config.MetadataConnection is unset — itself a legitimate
// lightweight deployment for cleanup/demo runs, not just a test seam.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.MetadataConnection == "" {
		return &stores{
			Catalog:    catalog.NewMemoryStore(),
			ProcessLog: processlog.NewMemoryStore(),
			Alerting:   alerting.NewMemoryStore(),
		}, nil
	}

	pool, err := openMetadataPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	catalogStore := catalog.NewPostgresStore(pool)
	if err := catalogStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	processLogStore := processlog.NewPostgresStore(pool)
	if err := processLogStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	alertingStore := alerting.NewPostgresStore(pool)
	if err := alertingStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &stores{
		Catalog:    catalogStore,
		ProcessLog: processLogStore,
		Alerting:   alertingStore,
		pool:       pool,
	}, nil
}
