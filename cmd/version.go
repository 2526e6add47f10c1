package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print datasync version and supported source/target engines",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "datasync %s (commit: %s, built: %s)\n\n", Version, CommitSHA, BuildDate)
		fmt.Fprintln(cmd.OutOrStdout(), "Source engines:")
		fmt.Fprintln(cmd.OutOrStdout(), "  • MySQL / MariaDB (fully wired, trigger-based change capture)")
		fmt.Fprintln(cmd.OutOrStdout(), "  • DB2, MSSQL, Oracle, MongoDB (interface defined, adapter not bundled)")
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), "Target engines:")
		fmt.Fprintln(cmd.OutOrStdout(), "  • PostgreSQL (fully wired)")
		fmt.Fprintln(cmd.OutOrStdout(), "  • BigQuery, Redshift, Snowflake (interface defined, adapter not bundled)")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
