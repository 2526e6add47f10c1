// Package mysqlsrc is the MySQL dialect adapter implementing
// source.Engine. It adapts the teacher's internal/mysql (connection
// bring-up, information_schema introspection) and internal/topology
// (cluster detection) packages from a stateless CLI analyzer into a
// long-lived source adapter that also reads the CDC change-log artifact
// and installs its triggers.
package mysqlsrc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/tgberrios/datasync/internal/logx"
)

// ConnectionConfig holds the parameters for one MySQL source connection.
type ConnectionConfig struct {
	Name     string // logical connection name, as tracked in the catalog
	Host     string
	Port     int
	User     string
	Password string
	Database string // metadata schema hosting ds_change_log artifacts
	Socket   string
	TLSMode  string // "", "disabled", "preferred", "required", "skip-verify", "custom"
	TLSCA    string
}

// Engine is the concrete MySQL source.Engine implementation.
type Engine struct {
	cfg ConnectionConfig
	db  *sql.DB
	log zerolog.Logger
}

// Open establishes the MySQL connection with retry: 3 attempts,
// exponential backoff starting at 100ms, per the source adapter
// connection-lifecycle contract.
func Open(ctx context.Context, cfg ConnectionConfig) (*Engine, error) {
	if cfg.TLSMode == "custom" {
		if cfg.TLSCA == "" {
			return nil, fmt.Errorf("mysqlsrc: tls-ca is required when tls mode is custom")
		}
		if err := registerCustomTLS(cfg.Name, cfg.TLSCA); err != nil {
			return nil, fmt.Errorf("mysqlsrc: tls setup: %w", err)
		}
	}

	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(100*time.Millisecond),
	), 2) // 2 retries + the first attempt = 3 total

	log := logx.New("source.mysql", "connection", cfg.Name)

	attempt := 0
	op := func() error {
		attempt++
		var openErr error
		db, openErr = sql.Open("mysql", dsn)
		if openErr != nil {
			return openErr
		}
		if pingErr := db.PingContext(ctx); pingErr != nil {
			db.Close()
			log.Warn().Int("attempt", attempt).Err(pingErr).Msg("mysql connect attempt failed")
			return pingErr
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("mysqlsrc: connect after %d attempts: %w", attempt, err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Engine{cfg: cfg, db: db, log: log}, nil
}

func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

func registerCustomTLS(name, caPath string) error {
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return fmt.Errorf("reading CA certificate %q: %w", caPath, err)
	}
	rootCAs := x509.NewCertPool()
	if !rootCAs.AppendCertsFromPEM(pem) {
		return fmt.Errorf("no valid certificates found in %q", caPath)
	}
	return mysqldriver.RegisterTLSConfig("datasync-"+name, &tls.Config{RootCAs: rootCAs})
}

func buildDSN(cfg ConnectionConfig) (string, error) {
	switch cfg.TLSMode {
	case "", "disabled", "preferred", "required", "skip-verify", "custom":
	default:
		return "", fmt.Errorf("mysqlsrc: invalid tls mode %q", cfg.TLSMode)
	}

	var addr string
	if cfg.Socket != "" {
		addr = fmt.Sprintf("unix(%s)", cfg.Socket)
	} else {
		addr = fmt.Sprintf("tcp(%s:%d)", cfg.Host, cfg.Port)
	}

	db := cfg.Database
	if db == "" {
		db = "information_schema"
	}

	dsn := fmt.Sprintf("%s:%s@%s/%s?parseTime=true&interpolateParams=true", cfg.User, cfg.Password, addr, db)

	switch cfg.TLSMode {
	case "preferred":
		dsn += "&tls=preferred"
	case "required":
		dsn += "&tls=true"
	case "skip-verify":
		dsn += "&tls=skip-verify"
	case "custom":
		dsn += "&tls=datasync-" + cfg.Name
	}
	return dsn, nil
}
