package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tgberrios/datasync/internal/config"
	"github.com/tgberrios/datasync/internal/logx"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "datasync",
	Short: "Heterogeneous CDC replication, transformation, and warehouse build engine",
	Long: `datasync replicates tables from source databases into a target
warehouse via change-data-capture, optionally transforms them through a
pipeline of operators, and builds dimensional (Bronze/Silver/Gold) and
Data Vault (Hub/Link/Satellite) models on top of the replicated data.

It tells you, per table, what state replication is in, what a sync run
did, and raises governance alerts when data quality, PII exposure, or
freshness checks fail.`,
}

// Execute is called by main.main(). It adds all child commands to the
// root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.datasync/config.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Output format: text, plain, json, markdown (overrides config)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show additional debug info")
}

// loadConfig reads the resolved Config for this invocation, applying any
// --format/--verbose flag overrides on top of the file/env-derived
// values, and configures the process-wide logger accordingly. Every
// subcommand's RunE calls this first.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMisconfiguration, err)
	}

	if f, _ := cmd.Flags().GetString("format"); f != "" {
		cfg.Format = f
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Verbose = true
	}

	level := logx.InfoLevel
	if cfg.Verbose {
		level = logx.DebugLevel
	}
	logx.Configure(cfg.Format == "text" || cfg.Format == "plain", level)

	return cfg, nil
}
