package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	syncengine "github.com/tonimelisma/stellarsync/internal/sync"
)

// newSyncCmd builds the manual "sync now" command. With no --endpoints it
// runs every family in dependency order; --full forces a complete sweep
// regardless of the delta policy.
func newSyncCmd() *cobra.Command {
	var (
		flagEndpoints []string
		flagFull      bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a synchronization pass now",
		Long: "Synchronizes the local store from the upstream catalog API. " +
			"Without --endpoints, all families run in dependency order " +
			"(categories before items, locations parent-before-child).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := shutdownContext(cmd.Context(), a.logger)

			var (
				results []syncengine.Result
				runErr  error
			)

			if len(flagEndpoints) > 0 {
				results, runErr = a.scheduler.RunEndpoints(ctx, flagEndpoints, flagFull)
			} else {
				results, runErr = a.scheduler.RunAll(ctx, flagFull)
			}

			printResults(os.Stdout, results, flagJSON)

			if runErr != nil {
				if errors.Is(runErr, syncengine.ErrLockConflict) {
					return fmt.Errorf("sync already in progress: %w", runErr)
				}

				return runErr
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&flagEndpoints, "endpoints", nil,
		"endpoints to sync (comma-separated, e.g. categories,star_systems); default all")
	cmd.Flags().BoolVar(&flagFull, "full", false, "force a full sweep instead of delta")

	return cmd
}
