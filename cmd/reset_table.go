package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgberrios/datasync/internal/output"
)

var resetTableCmd = &cobra.Command{
	Use:          "reset-table <schema.table>",
	Short:        "Drop a table's target data and reset it to FULL_LOAD",
	SilenceUsage: true,
	Args:         cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaName, table, ok := strings.Cut(args[0], ".")
		if !ok {
			return fmt.Errorf("%w: expected schema.table, got %q", errMisconfiguration, args[0])
		}

		engine, _ := cmd.Flags().GetString("engine")
		connection, _ := cmd.Flags().GetString("connection")
		if engine == "" || connection == "" {
			return fmt.Errorf("%w: --engine and --connection are required", errMisconfiguration)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		conn, ok := cfg.ConnectionByName(connection)
		if !ok {
			return fmt.Errorf("%w: unknown connection %q", errMisconfiguration, connection)
		}

		ctx := cmd.Context()
		tgt, err := openTarget(ctx, conn)
		if err != nil {
			return fmt.Errorf("reset-table: open target: %w", err)
		}
		defer tgt.Close()

		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Catalog.Reset(ctx, schemaName, table, engine, tgt); err != nil {
			return fmt.Errorf("reset-table %s.%s: %w", schemaName, table, err)
		}

		output.NewRenderer(cfg.Format, cmd.OutOrStdout()).RenderSummary(&output.Summary{
			Title:  "reset-table",
			Status: output.StatusOK,
			Sections: []output.Section{{
				Title: "Reset",
				Lines: []output.LabelValue{
					{Label: "Schema", Value: schemaName},
					{Label: "Table", Value: table},
					{Label: "New status", Value: "FULL_LOAD"},
				},
			}},
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetTableCmd)
	resetTableCmd.Flags().String("engine", "", "Source engine the table was replicated from (required)")
	resetTableCmd.Flags().String("connection", "", "Target connection the table lives on (required)")
}
