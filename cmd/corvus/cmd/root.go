// Package cmd provides the CLI commands for the corvus operator surface.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/corvusdb/corvus/internal/cache"
	corvusconfig "github.com/corvusdb/corvus/internal/config"
	"github.com/corvusdb/corvus/internal/logging"
	"github.com/corvusdb/corvus/internal/search"
	"github.com/corvusdb/corvus/internal/store"
	"github.com/corvusdb/corvus/internal/telemetry"
	"github.com/corvusdb/corvus/pkg/version"
)

var (
	configPath string
	debugMode  bool

	loggingCleanup func()
)

// app bundles the engine and its collaborators for the lifetime of one CLI
// process. There is no persistence between invocations — the store lives
// only as long as the process does, per the core's durability non-goal.
type app struct {
	cfg    *corvusconfig.Config
	store  *store.Store
	engine *search.Engine
}

func newApp() (*app, error) {
	cfg, err := corvusconfig.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	s := store.New()

	var opts []search.Option
	if cfg.Cache.Enabled {
		rc, err := cache.New(cfg.Cache.Capacity)
		if err != nil {
			return nil, fmt.Errorf("creating result cache: %w", err)
		}
		opts = append(opts, search.WithCache(rc))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, search.WithMetrics(telemetry.New(prometheus.NewRegistry())))
	}
	if cfg.Hybrid.Enabled {
		opts = append(opts, search.WithRRFConstant(cfg.Hybrid.RRFConstant))
	}

	return &app{cfg: cfg, store: s, engine: search.NewEngine(s, opts...)}, nil
}

// NewRootCmd creates the root command for the corvus CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "corvus",
		Short:   "Operator CLI for the corvus in-memory vector database core",
		Long:    `corvus drives the in-memory vector database core directly, standing in for a REST facade during local development, tests, and demos.`,
		Version: version.Version,
	}
	cmd.SetVersionTemplate("corvus version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", corvusconfig.DefaultPath(), "Path to config YAML file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.corvus/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newReplCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
