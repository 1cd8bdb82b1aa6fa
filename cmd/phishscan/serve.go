package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/api"
	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/reputation"
	"github.com/nao1215/phishscan/internal/telemetry"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring HTTP API",
		Long: `Serve starts the HTTP API used by the browser extension and web clients.

Endpoints:
  POST /api/scan-url        score one URL: {"url": "..."}
  POST /api/scan-url/batch  score several URLs: {"urls": ["...", "..."]}
  GET  /api/history         recent results (?limit=N)
  GET  /health              liveness
  GET  /ready               readiness with per-component checks
  GET  /metrics             Prometheus metrics

In snapshot mode the blacklist feed is refreshed in the background for the
lifetime of the server.

Examples:
  # Listen on the default address
  phishscan serve

  # Listen on all interfaces with a classifier bundle
  phishscan serve --listen 0.0.0.0:8000 --model ./bundle.json`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", "",
		"Listen address (default "+config.DefaultListenAddress+")")
	cmd.Flags().String("model", "",
		"Classifier model bundle (JSON); empty disables the classifier")
	cmd.Flags().String("feed", "",
		"Blacklist feed URL or file path")
	cmd.Flags().Bool("no-history", false,
		"Do not record results in the history database")
	cmd.Flags().Bool("log-json", false,
		"Write logs to stderr as JSON lines")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return err
	}
	var logger *slog.Logger
	if logJSON {
		logger = setupJSONLogger(cfg.Verbose)
	} else {
		logger = setupLogger(cfg.Verbose)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg, logger)
}

// buildServeConfig loads the configuration file and applies flags on top.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		if cfg.ListenAddress, err = flags.GetString("listen"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("model") {
		if cfg.ModelPath, err = flags.GetString("model"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("feed") {
		if cfg.FeedLocation, err = flags.GetString("feed"); err != nil {
			return nil, err
		}
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveToDB = false
	}
	return cfg, nil
}

// runServe builds the server from cfg and blocks until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	metrics := telemetry.New()

	s, err := newScanner(cfg, logger, metrics)
	if err != nil {
		return err
	}

	opts := []api.Option{
		api.WithLogger(logger),
		api.WithMetrics(metrics),
		api.WithAllowedOrigins(cfg.AllowedOrigins...),
		api.WithMaxBatchURLs(cfg.MaxBatchURLs),
		api.WithBatchConcurrency(cfg.BatchSize),
		api.WithVersion(getVersion()),
		api.WithReadyCheck("classifier", api.ModelCheck(s.modelDigest())),
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		opts = append(opts, api.WithHistory(db))
	}

	if s.updater != nil {
		opts = append(opts, api.WithReadyCheck("blacklist", api.SnapshotCheck(s.snapshot, 2*cfg.RefreshInterval)))
		go func() {
			if err := s.updater.Run(ctx); err != nil && !errors.Is(err, reputation.ErrUpdaterRunning) {
				logger.Error("blacklist updater stopped", "error", err)
			}
		}()
	}

	logger.Info("starting server",
		"address", cfg.ListenAddress,
		"signals", s.aggregator.Signals(),
		"reputationMode", cfg.ReputationMode,
	)
	fmt.Fprintf(os.Stderr, "phishscan listening on http://%s\n", cfg.ListenAddress)

	return api.NewServer(s.aggregator, opts...).ListenAndServe(ctx, cfg.ListenAddress)
}
