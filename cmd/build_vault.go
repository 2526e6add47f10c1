package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgberrios/datasync/internal/output"
	"github.com/tgberrios/datasync/internal/vault"
)

var buildVaultCmd = &cobra.Command{
	Use:          "build-vault <name>",
	Short:        "Build a Data Vault (Hub/Link/Satellite/PIT/Bridge) model",
	SilenceUsage: true,
	Args:         cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		model, err := vaultModelByName(args[0])
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
			return fmt.Errorf("build-vault: open target: %w", err)
		}
		defer eng.Close()

		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		builder := vault.NewBuilder(eng, st.ProcessLog)
		result, err := builder.Build(ctx, model)
		if err != nil {
			return fmt.Errorf("build-vault %s: %w", model.Name, err)
		}

		output.NewRenderer(cfg.Format, cmd.OutOrStdout()).RenderSummary(&output.Summary{
			Title:  fmt.Sprintf("build-vault %s", model.Name),
			Status: output.StatusOK,
			Sections: []output.Section{{
				Title: "Build",
				Lines: []output.LabelValue{
					{Label: "Hubs built", Value: fmt.Sprintf("%d", len(result.HubRows))},
					{Label: "Links built", Value: fmt.Sprintf("%d", len(result.LinkRows))},
					{Label: "Satellites built", Value: fmt.Sprintf("%d", len(result.SatelliteRows))},
					{Label: "PITs built", Value: fmt.Sprintf("%d", len(result.PITRows))},
					{Label: "Bridges built", Value: fmt.Sprintf("%d", len(result.BridgeRows))},
				},
			}},
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildVaultCmd)
	buildVaultCmd.Flags().String("connection", "", "Target connection to build against (required)")
}
