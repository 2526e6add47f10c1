package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgberrios/datasync/internal/config"
	"github.com/tgberrios/datasync/internal/source"
	"github.com/tgberrios/datasync/internal/source/mysqlsrc"
	srcstub "github.com/tgberrios/datasync/internal/source/stub"
	"github.com/tgberrios/datasync/internal/target"
	"github.com/tgberrios/datasync/internal/target/postgres"
	tgtstub "github.com/tgberrios/datasync/internal/target/stub"
)

// postgresDSN builds a libpq connection string from a Connection entry,
// the same buildDSN-from-Connection idiom as mysqlsrc.buildDSN, adapted
// to Postgres's postgres:// URL form.
func postgresDSN(c config.Connection) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password(), c.Host, c.Port, c.Database, sslMode)
}

// openSource opens the source.Engine for a Connection by its declared
// dialect. Only mysql is fully wired; every other dialect returns the
// read-only stub so callers still get a usable, clearly-labeled Engine
// rather than an error.
func openSource(ctx context.Context, c config.Connection) (source.Engine, error) {
	switch c.Engine {
	case "mysql", "mariadb":
		return mysqlsrc.Open(ctx, mysqlsrc.ConnectionConfig{
			Name:     c.Name,
			Host:     c.Host,
			Port:     c.Port,
			User:     c.User,
			Password: c.Password(),
			Database: c.Database,
		})
	default:
		return srcstub.New(c.Engine), nil
	}
}

// openTarget opens the target.Engine for a Connection by its declared
// dialect. Only postgres is fully wired.
func openTarget(ctx context.Context, c config.Connection) (target.Engine, error) {
	switch c.Engine {
	case "postgres":
		return postgres.Open(ctx, postgresDSN(c))
	default:
		return tgtstub.New(c.Engine), nil
	}
}

// cliConnectionOpener implements replication.ConnectionOpener by looking
// connection names up in the loaded Config.
type cliConnectionOpener struct {
	cfg *config.Config
}

func (o cliConnectionOpener) OpenSource(ctx context.Context, connection string) (source.Engine, error) {
	c, ok := o.cfg.ConnectionByName(connection)
	if !ok {
		return nil, fmt.Errorf("%w: unknown connection %q", errMisconfiguration, connection)
	}
	return openSource(ctx, c)
}

func (o cliConnectionOpener) OpenTarget(ctx context.Context, connection string) (target.Engine, error) {
	c, ok := o.cfg.ConnectionByName(connection)
	if !ok {
		return nil, fmt.Errorf("%w: unknown connection %q", errMisconfiguration, connection)
	}
	return openTarget(ctx, c)
}

// openMetadataPool connects to the Postgres connection named by
// Config.MetadataConnection. Callers must Close the pool.
func openMetadataPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	c, ok := cfg.ConnectionByName(cfg.MetadataConnection)
	if !ok {
		return nil, fmt.Errorf("%w: metadata_connection %q not found", errMisconfiguration, cfg.MetadataConnection)
	}
	if c.Engine != "postgres" {
		return nil, fmt.Errorf("%w: metadata_connection %q must be engine postgres, got %q", errMisconfiguration, c.Name, c.Engine)
	}
	pool, err := pgxpool.New(ctx, postgresDSN(c))
	if err != nil {
		return nil, fmt.Errorf("metadata store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("metadata store: ping: %w", err)
	}
	return pool, nil
}
