package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgberrios/datasync/internal/output"
	"github.com/tgberrios/datasync/internal/warehouse"
)

var buildWarehouseCmd = &cobra.Command{
	Use:          "build-warehouse <name>",
	Short:        "Build a dimensional (Bronze/Silver/Gold) warehouse model",
	SilenceUsage: true,
	Args:         cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		model, err := warehouseModelByName(args[0])
		if err != nil {
			return err
		}

		connection, _ := cmd.Flags().GetString("connection")
		if connection == "" {
			return fmt.Errorf("%w: --connection is required", errMisconfiguration)
		}
		conn, ok := cfg.ConnectionByName(connection)
		if !ok {
			return fmt.Errorf("%w: unknown connection %q", errMisconfiguration, connection)
		}

		ctx := cmd.Context()
		eng, err := openTarget(ctx, conn)
		if err != nil {
			return fmt.Errorf("build-warehouse: open target: %w", err)
		}
		defer eng.Close()

		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		builder := warehouse.NewBuilder(eng, nil, st.ProcessLog)
		result, err := builder.Build(ctx, model)
		if err != nil {
			return fmt.Errorf("build-warehouse %s: %w", model.Name, err)
		}

		output.NewRenderer(cfg.Format, cmd.OutOrStdout()).RenderSummary(&output.Summary{
			Title:  fmt.Sprintf("build-warehouse %s", model.Name),
			Status: output.StatusOK,
			Sections: []output.Section{{
				Title: "Build",
				Lines: []output.LabelValue{
					{Label: "Silver rows written", Value: fmt.Sprintf("%d", result.SilverRowsWritten)},
					{Label: "Dimensions built", Value: fmt.Sprintf("%d", len(result.DimensionRows))},
					{Label: "Facts built", Value: fmt.Sprintf("%d", len(result.FactRows))},
				},
			}},
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildWarehouseCmd)
	buildWarehouseCmd.Flags().String("connection", "", "Target connection to build against (required)")
}
