package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgberrios/datasync/internal/alerting"
	"github.com/tgberrios/datasync/internal/catalog"
	"github.com/tgberrios/datasync/internal/config"
	"github.com/tgberrios/datasync/internal/logx"
	"github.com/tgberrios/datasync/internal/output"
	"github.com/tgberrios/datasync/internal/replication"
)

var syncCmd = &cobra.Command{
	Use:          "sync",
	Short:        "Run the replication worker once or on a loop",
	SilenceUsage: true,
	Long: `sync enumerates every active catalog entry for each distinct source
engine configured and replicates it (full load or incremental, depending
on its status), then runs the governance checks and dispatches any
alerts raised to subscribed webhooks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		once, _ := cmd.Flags().GetBool("once")
		loop, _ := cmd.Flags().GetBool("loop")
		if once == loop {
			return fmt.Errorf("%w: specify exactly one of --once or --loop", errMisconfiguration)
		}
		interval, _ := cmd.Flags().GetDuration("interval")

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		logger := logx.New("cmd.sync")
		renderer := output.NewRenderer(cfg.Format, cmd.OutOrStdout())

		runCycle := func() error {
			var processed, failedCount int
			var warnings []string

			for _, eng := range distinctEngines(cfg) {
				sup := &replication.Supervisor{
					Catalog:   st.Catalog,
					Engine:    eng,
					Opener:    cliConnectionOpener{cfg: cfg},
					PoolSize:  cfg.Worker.PoolSize,
					ChunkSize: cfg.Worker.ChunkSize,
					OnOutcome: func(entry catalog.Entry, outcome replication.Outcome, err error) {
						processed++
						if err != nil {
							failedCount++
							msg := fmt.Sprintf("%s.%s: %v", entry.Schema, entry.Table, err)
							warnings = append(warnings, msg)
							logger.Warn().Str("schema", entry.Schema).Str("table", entry.Table).Err(err).Msg("sync job failed")
						}
					},
				}
				if err := sup.RunOnce(ctx); err != nil {
					return fmt.Errorf("sync: engine %s: %w", eng, err)
				}
			}

			alertCount, err := runAlertCycle(ctx, cfg, st)
			if err != nil {
				logger.Warn().Err(err).Msg("alert evaluation failed")
				warnings = append(warnings, fmt.Sprintf("alert evaluation failed: %v", err))
			}

			status := output.StatusOK
			if failedCount > 0 {
				status = output.StatusDegraded
			}
			renderer.RenderSummary(&output.Summary{
				Title:  "sync",
				Status: status,
				Sections: []output.Section{{
					Title: "Cycle",
					Lines: []output.LabelValue{
						{Label: "Engines", Value: fmt.Sprintf("%d", len(distinctEngines(cfg)))},
						{Label: "Tables processed", Value: fmt.Sprintf("%d", processed)},
						{Label: "Tables failed", Value: fmt.Sprintf("%d", failedCount)},
						{Label: "Alerts raised", Value: fmt.Sprintf("%d", alertCount)},
					},
				}},
				Warnings: warnings,
			})

			if failedCount > 0 {
				return fmt.Errorf("sync: one or more tables failed this cycle")
			}
			return nil
		}

		if once {
			return runCycle()
		}

		for {
			if err := runCycle(); err != nil {
				logger.Warn().Err(err).Msg("sync cycle reported a failure")
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(interval):
			}
		}
	},
}

// distinctEngines returns the set of source engine names configured,
// order-preserved by first appearance.
func distinctEngines(cfg *config.Config) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range cfg.Connections {
		if seen[c.Engine] {
			continue
		}
		seen[c.Engine] = true
		out = append(out, c.Engine)
	}
	return out
}

// runAlertCycle evaluates the governance checks against the metadata
// connection's catalog tables and fans any firing alert out to every
// subscribed webhook. A no-op when no metadata connection is configured,
// since the governance catalog tables live there. Returns the number of
// alerts raised this cycle.
func runAlertCycle(ctx context.Context, cfg *config.Config, st *stores) (int, error) {
	if cfg.MetadataConnection == "" {
		return 0, nil
	}
	metaConn, ok := cfg.ConnectionByName(cfg.MetadataConnection)
	if !ok {
		return 0, fmt.Errorf("%w: metadata_connection %q not found", errMisconfiguration, cfg.MetadataConnection)
	}

	eng, err := openTarget(ctx, metaConn)
	if err != nil {
		return 0, fmt.Errorf("alert cycle: open metadata target: %w", err)
	}
	defer eng.Close()

	source := alerting.NewTargetSource(eng, "metadata")
	evaluator := alerting.NewEvaluator(source, alerting.ThresholdsFromConfig(cfg.Alerting))

	alerts, err := evaluator.RunAllChecks(ctx)
	if err != nil {
		return 0, fmt.Errorf("alert cycle: evaluate: %w", err)
	}

	dispatcher := alerting.NewDispatcher(st.Alerting)
	for _, a := range alerts {
		if _, err := st.Alerting.CreateAlert(ctx, a); err != nil {
			return 0, fmt.Errorf("alert cycle: persist alert: %w", err)
		}
		for _, sendErr := range dispatcher.Dispatch(ctx, a) {
			logx.New("cmd.sync").Warn().Err(sendErr).Msg("webhook delivery failed")
		}
	}
	return len(alerts), nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("once", false, "Run one sync cycle and exit")
	syncCmd.Flags().Bool("loop", false, "Run sync cycles continuously until interrupted")
	syncCmd.Flags().Duration("interval", 30*time.Second, "Delay between cycles in --loop mode")
}
