package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"flick/internal/config"
	"flick/internal/core"
	"flick/internal/handlers"
	"flick/internal/metrics"
	"flick/internal/utils"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "flick",
	Short:        "Flick - movie and TV stream lookup proxy",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources and embeds known to the providers runner",
	RunE:  runSources,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yml", "Path to configuration file")
	rootCmd.AddCommand(serveCmd, sourcesCmd)
}

// setup loads the configuration and builds a logger writing to stdout and, when set, the log file.
func setup() (*config.Config, *utils.Logger, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	var out io.Writer = os.Stdout
	closeLog := func() {}
	if cfg.App.LogFile != "" {
		logFile, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, logFile)
		closeLog = func() { logFile.Close() }
	}

	logger := utils.NewLogger(cfg.App.Debug, cfg.App.LogLevel, out)
	cleanup := func() {
		_ = logger.Sync()
		closeLog()
	}
	return cfg, logger, cleanup, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	m := metrics.New()
	manager := core.NewManager(cfg, logger, m)
	server := handlers.NewServer(cfg, manager, m, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.StartScheduler(); err != nil {
		return err
	}
	defer manager.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})

	logger.Info("Flick started successfully on port", cfg.App.Port)

	err = g.Wait()
	logger.Info("Shutting down...")
	return err
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, logger, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	manager := core.NewManager(cfg, logger, metrics.New())
	sources, err := manager.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sources)
}
