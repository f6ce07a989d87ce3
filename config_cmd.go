package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigEndpointCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		RunE:  runConfigShow,
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	if resolvedCfg == nil {
		return fmt.Errorf("no configuration loaded")
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(resolvedCfg)
	}

	fmt.Printf("api.base_url            %s\n", resolvedCfg.API.BaseURL)
	fmt.Printf("api.timeout             %s\n", resolvedCfg.APITimeout())
	fmt.Printf("database.path           %s\n", resolvedCfg.Database.Path)
	fmt.Printf("sync.interval           %s\n", resolvedCfg.SyncInterval())
	fmt.Printf("sync.actor_id           %s\n", resolvedCfg.Sync.ActorID)
	fmt.Printf("logging.log_level       %s\n", resolvedCfg.Logging.LogLevel)
	fmt.Printf("logging.log_format      %s\n", resolvedCfg.Logging.LogFormat)
	fmt.Printf("logging.log_file        %s\n", orDash(resolvedCfg.Logging.LogFile))
	fmt.Printf("logging.retention_days  %d\n", resolvedCfg.Logging.LogRetentionDays)

	return nil
}

func newConfigEndpointCmd() *cobra.Command {
	var (
		enabled           bool
		deltaEnabled      bool
		fullIntervalDays  int
		retryAttempts     int
		backoffMultiplier float64
	)

	cmd := &cobra.Command{
		Use:   "endpoint <name>",
		Short: "Show or tune an endpoint's sync settings",
		Long: "Without flags, prints the endpoint's current sync settings.\n" +
			"With flags, updates the given settings and prints the result.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			endpoint := args[0]

			if !knownEndpoint(a, endpoint) {
				return fmt.Errorf("unknown endpoint %q", endpoint)
			}

			cfg, err := a.states.Config(ctx, endpoint)
			if err != nil {
				return err
			}

			changed := false

			if cmd.Flags().Changed("enabled") {
				cfg.Enabled = enabled
				changed = true
			}

			if cmd.Flags().Changed("delta") {
				cfg.DeltaSyncEnabled = deltaEnabled
				changed = true
			}

			if cmd.Flags().Changed("full-sync-interval-days") {
				if fullIntervalDays < 1 {
					return fmt.Errorf("full-sync-interval-days must be at least 1")
				}

				cfg.FullSyncIntervalDays = fullIntervalDays
				changed = true
			}

			if cmd.Flags().Changed("retry-attempts") {
				if retryAttempts < 0 {
					return fmt.Errorf("retry-attempts must not be negative")
				}

				cfg.RetryAttempts = retryAttempts
				changed = true
			}

			if cmd.Flags().Changed("backoff-multiplier") {
				if backoffMultiplier <= 0 {
					return fmt.Errorf("backoff-multiplier must be positive")
				}

				cfg.BackoffMultiplier = backoffMultiplier
				changed = true
			}

			if changed {
				if err := a.states.SetConfig(ctx, cfg); err != nil {
					return err
				}
			}

			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")

				return enc.Encode(cfg)
			}

			fmt.Printf("endpoint                 %s\n", cfg.EndpointName)
			fmt.Printf("enabled                  %s\n", strconv.FormatBool(cfg.Enabled))
			fmt.Printf("delta_sync_enabled       %s\n", strconv.FormatBool(cfg.DeltaSyncEnabled))
			fmt.Printf("full_sync_interval_days  %d\n", cfg.FullSyncIntervalDays)
			fmt.Printf("rate_limit_per_hour      %d\n", cfg.RateLimitPerHour)
			fmt.Printf("timeout_seconds          %d\n", cfg.TimeoutSeconds)
			fmt.Printf("retry_attempts           %d\n", cfg.RetryAttempts)
			fmt.Printf("backoff_multiplier       %g\n", cfg.BackoffMultiplier)

			return nil
		},
	}

	cmd.Flags().BoolVar(&enabled, "enabled", true, "enable or disable the endpoint")
	cmd.Flags().BoolVar(&deltaEnabled, "delta", true, "enable or disable incremental sync")
	cmd.Flags().IntVar(&fullIntervalDays, "full-sync-interval-days", 0, "days between forced full sweeps")
	cmd.Flags().IntVar(&retryAttempts, "retry-attempts", 0, "retries after a failed fetch")
	cmd.Flags().Float64Var(&backoffMultiplier, "backoff-multiplier", 0, "first retry delay in seconds")

	return cmd
}

func knownEndpoint(a *app, name string) bool {
	for _, known := range a.scheduler.KnownEndpoints() {
		if known == name {
			return true
		}
	}

	return false
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
