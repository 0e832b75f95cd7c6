package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sabarim/b3quotes/internal/config"
	"github.com/sabarim/b3quotes/internal/logging"
)

var (
	configFile string
	verbose    bool
	version    bool
)

var versionString = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "b3quotes",
		Short: "Daily B3 quote ingestion and refinement",
		Long: `b3quotes downloads daily quotes for B3 tickers into date/ticker partitioned
Parquet files and refines them into per-ticker aggregates with rolling metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			if version {
				fmt.Printf("b3quotes version %s\n", versionString)
				return
			}
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&version, "version", false, "Print version information")

	rootCmd.AddCommand(newFetchCmd(), newRefineCmd(), newBatchCmd(), newResourcesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs: configuration, a logger and a
// context cancelled on SIGINT/SIGTERM.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func setup() (*app, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	log := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigchan:
			log.Warn("received signal, initiating shutdown", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return &app{cfg: cfg, log: log, ctx: ctx, cancel: cancel}, nil
}

func (a *app) close() {
	a.cancel()
}
