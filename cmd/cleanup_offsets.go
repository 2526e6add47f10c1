package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgberrios/datasync/internal/output"
)

var cleanupOffsetsCmd = &cobra.Command{
	Use:          "cleanup-offsets",
	Short:        "Migrate catalog entries off the legacy offset strategy",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		migrated, err := st.Catalog.MigrateOffsetStrategy(ctx)
		if err != nil {
			return fmt.Errorf("cleanup-offsets: %w", err)
		}

		output.NewRenderer(cfg.Format, cmd.OutOrStdout()).RenderSummary(&output.Summary{
			Title:  "cleanup-offsets",
			Status: output.StatusOK,
			Sections: []output.Section{{
				Title: "Migration",
				Lines: []output.LabelValue{
					{Label: "Entries migrated", Value: fmt.Sprintf("%d", migrated)},
				},
			}},
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupOffsetsCmd)
}
