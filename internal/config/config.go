// Package config loads the engine's operational configuration: connection
// definitions, cluster labels, worker pool sizing, chunk size, memory
// thresholds, and the spill directory. It mirrors the teacher's viper-based
// loader (cmd/root.go's initConfig) generalized from a single-connection CLI
// flag set to the multi-connection, multi-cluster shape this engine needs.
//
// Per-connection credentials are never read from this file directly; a
// connection entry names an env var or mounted secret path, and the source
// adapter resolves it at connect time. That split keeps the config file
// safe to commit.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Connection describes one source or target endpoint.
type Connection struct {
	Name         string `mapstructure:"name"`
	Engine       string `mapstructure:"engine"` // mysql, postgres, db2, mssql, mariadb, oracle, mongodb, bigquery, redshift, snowflake
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Database     string `mapstructure:"database"`
	User         string `mapstructure:"user"`
	PasswordEnv  string `mapstructure:"password_env"`  // env var holding the password
	PasswordFile string `mapstructure:"password_file"` // or a mounted secret file
	Cluster      string `mapstructure:"cluster"`        // logical cluster label, e.g. "prod-east"
	SSLMode      string `mapstructure:"ssl_mode"`
}

// Password resolves the connection's credential from its env var or file,
// env taking precedence. Returns an empty string if neither is set.
func (c Connection) Password() string {
	if c.PasswordEnv != "" {
		if v := os.Getenv(c.PasswordEnv); v != "" {
			return v
		}
	}
	if c.PasswordFile != "" {
		if b, err := os.ReadFile(c.PasswordFile); err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return ""
}

// Cluster groups connections that share failover/replica topology, so the
// replication worker can route reads to a replica of the same cluster as
// its primary source.
type Cluster struct {
	Name        string   `mapstructure:"name"`
	Connections []string `mapstructure:"connections"`
}

// Worker controls the replication/transform worker pool shape.
type Worker struct {
	PoolSize       int           `mapstructure:"pool_size"`
	ChunkSize      int           `mapstructure:"chunk_size"`
	RetryMax       int           `mapstructure:"retry_max"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

// Memory controls the memory manager's thresholds and spill behavior.
type Memory struct {
	WarningBytes  int64  `mapstructure:"warning_bytes"`
	CriticalBytes int64  `mapstructure:"critical_bytes"`
	SpillDir      string `mapstructure:"spill_dir"`
}

// Alerting controls the governance check thresholds internal/alerting
// evaluates on each run.
type Alerting struct {
	DataQualityWarn       float64 `mapstructure:"data_quality_warn"`
	DataQualityCritical   float64 `mapstructure:"data_quality_critical"`
	FragmentationWarn     float64 `mapstructure:"fragmentation_warn"`
	FragmentationCritical float64 `mapstructure:"fragmentation_critical"`
	AccessCountMax        int64   `mapstructure:"access_count_max"`
	AccessTableCountMax   int64   `mapstructure:"access_table_count_max"`
	DefaultFreshnessHours int     `mapstructure:"default_freshness_hours"`
}

// Config is the fully resolved operational configuration.
type Config struct {
	Connections []Connection `mapstructure:"connections"`
	Clusters    []Cluster    `mapstructure:"clusters"`
	Worker      Worker       `mapstructure:"worker"`
	Memory      Memory       `mapstructure:"memory"`
	Alerting    Alerting     `mapstructure:"alerting"`
	Format      string       `mapstructure:"format"` // text, plain, json, markdown — CLI report rendering
	Verbose     bool         `mapstructure:"verbose"`

	// MetadataConnection names the Connection (engine: postgres) backing
	// the catalog/processlog/alerting PostgresStores. Empty means the CLI
	// falls back to the in-memory stores — a legitimate lightweight
	// deployment for cleanup/demo runs, not just a test seam.
	MetadataConnection string `mapstructure:"metadata_connection"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("worker.pool_size", 4)
	v.SetDefault("worker.chunk_size", 5000)
	v.SetDefault("worker.retry_max", 3)
	v.SetDefault("worker.retry_base_delay", 100*time.Millisecond)
	v.SetDefault("memory.warning_bytes", 512*1024*1024)
	v.SetDefault("memory.critical_bytes", 1024*1024*1024)
	v.SetDefault("memory.spill_dir", os.TempDir())
	v.SetDefault("alerting.data_quality_warn", 70.0)
	v.SetDefault("alerting.data_quality_critical", 50.0)
	v.SetDefault("alerting.fragmentation_warn", 30.0)
	v.SetDefault("alerting.fragmentation_critical", 50.0)
	v.SetDefault("alerting.access_count_max", 1000)
	v.SetDefault("alerting.access_table_count_max", 50)
	v.SetDefault("alerting.default_freshness_hours", 24)
	v.SetDefault("format", "text")
}

// Load reads configuration from cfgFile if non-empty, otherwise from
// $HOME/.datasync/config.yaml, applying DSYNC_-prefixed environment
// overrides on top — the same precedence order as the teacher's
// initConfig, generalized past a single flat connection.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	defaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home + "/.datasync")
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	v.SetEnvPrefix("DSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && cfgFile != "" {
			return nil, fmt.Errorf("config: reading %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// ConnectionByName returns the named connection, or false if not present.
func (c *Config) ConnectionByName(name string) (Connection, bool) {
	for _, conn := range c.Connections {
		if conn.Name == name {
			return conn, true
		}
	}
	return Connection{}, false
}

// ClusterMembers returns the connection names in the named cluster.
func (c *Config) ClusterMembers(name string) []string {
	for _, cl := range c.Clusters {
		if cl.Name == name {
			return cl.Connections
		}
	}
	return nil
}
