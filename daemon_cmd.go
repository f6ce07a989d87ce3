package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
)

// newDaemonCmd builds the scheduled-trigger command: sync all families on
// the configured cadence until interrupted.
func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled synchronization until interrupted",
		Long: "Runs a sync pass across all families immediately and then on " +
			"the configured interval. SIGINT/SIGTERM finishes the in-flight " +
			"endpoint and exits; a second signal force-quits.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			interval := resolvedCfg.SyncInterval()

			a.logger.Info("daemon started",
				slog.Duration("interval", interval),
			)

			ctx := shutdownContext(cmd.Context(), a.logger)

			err = a.scheduler.RunForever(ctx, interval)
			if errors.Is(err, context.Canceled) {
				a.logger.Info("daemon stopped")
				return nil
			}

			return err
		},
	}
}
