// Command stellarsync mirrors a remote catalog API (item categories,
// tradable items, manufacturers, and the location hierarchy) into a local
// SQLite store, so the rest of the stack can serve that data without
// depending on the upstream's latency or availability.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tonimelisma/stellarsync/internal/config"
	"github.com/tonimelisma/stellarsync/internal/remote"
	"github.com/tonimelisma/stellarsync/internal/store"
	syncengine "github.com/tonimelisma/stellarsync/internal/sync"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagBaseURL    string
	flagDBPath     string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE,
// available to all subcommands after the root pre-run phase completes.
var resolvedCfg *config.Config

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stellarsync",
		Short:   "Catalog and world-state synchronization daemon",
		Long:    "Mirrors the upstream catalog API into a local SQLite store: categories, items, companies, and the seven-kind location hierarchy.",
		Version: version,
		// Silence cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "upstream API base URL override")
	cmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "database file path override")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the override chain
// and stores the result in resolvedCfg for use by subcommands.
func loadConfig() error {
	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
		BaseURL:    flagBaseURL,
		DBPath:     flagDBPath,
	}

	resolved, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = resolved

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win. Output is text on a
// terminal and JSON otherwise, unless the config pins a format; a log file,
// when configured, goes through lumberjack rotation.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	format := config.LogFormatText
	logFile := ""
	retention := 0

	if resolvedCfg != nil {
		switch resolvedCfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}

		format = resolvedCfg.Logging.LogFormat
		logFile = resolvedCfg.Logging.LogFile
		retention = resolvedCfg.Logging.LogRetentionDays
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	var out io.Writer = os.Stderr

	if logFile != "" {
		out = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // megabytes
			MaxAge:     retention,
			MaxBackups: 5,
			Compress:   true,
		}
	}

	opts := &slog.HandlerOptions{Level: level}

	if format == config.LogFormatJSON || (logFile == "" && !isatty.IsTerminal(os.Stderr.Fd())) {
		return slog.New(slog.NewJSONHandler(out, opts))
	}

	return slog.New(slog.NewTextHandler(out, opts))
}

// app bundles the wired engine for one command invocation.
type app struct {
	store     *store.Store
	states    *syncengine.StateStore
	scheduler *syncengine.Scheduler
	logger    *slog.Logger
}

// buildApp opens the store and wires the remote client, state store, and
// reconcilers. The system actor identity is resolved here, once, and passed
// explicitly down the stack. The caller must Close().
func buildApp() (*app, error) {
	logger := buildLogger()

	st, err := store.New(resolvedCfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: resolvedCfg.APITimeout()}
	client := remote.NewClient(resolvedCfg.API.BaseURL, httpClient, logger)

	states := syncengine.NewStateStore(st.DB(), logger)
	stores := syncengine.NewStores(st, logger)
	actor := resolvedCfg.Sync.ActorID

	scheduler := syncengine.NewScheduler(
		syncengine.NewCategoriesReconciler(states, client, stores, actor, logger),
		syncengine.NewCompaniesReconciler(states, client, stores, actor, logger),
		syncengine.NewItemsReconciler(states, client, stores, actor, syncengine.ItemsTuning{
			CategoryConcurrency: resolvedCfg.Sync.CategoryConcurrency,
			ChunkPause:          resolvedCfg.ChunkPause(),
			BatchSize:           resolvedCfg.Sync.ItemBatchSize,
		}, logger),
		syncengine.NewLocationsReconciler(states, client, stores, actor, logger),
		logger,
	)

	return &app{store: st, states: states, scheduler: scheduler, logger: logger}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("closing store failed", slog.String("error", err.Error()))
	}
}
