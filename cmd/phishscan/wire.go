package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/ensemble"
	"github.com/nao1215/phishscan/internal/features"
	"github.com/nao1215/phishscan/internal/heuristic"
	seclog "github.com/nao1215/phishscan/internal/log"
	"github.com/nao1215/phishscan/internal/netclient"
	"github.com/nao1215/phishscan/internal/pipeline"
	"github.com/nao1215/phishscan/internal/reputation"
	"github.com/nao1215/phishscan/internal/telemetry"
)

// scanner bundles the components built from a Config.
type scanner struct {
	cfg        *config.Config
	logger     *slog.Logger
	metrics    *telemetry.Metrics
	aggregator *pipeline.Aggregator

	// snapshot and updater are nil unless the reputation mode is snapshot.
	snapshot *reputation.SnapshotSource
	updater  *reputation.Updater

	// model is nil when no classifier bundle is configured.
	model *ensemble.Ensemble
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config file path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// commandContext returns the command context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig builds a Config from defaults and the configuration file.
// Command flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(getConfigFlag(cmd))
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// setupLogger creates the redacting logger used by every command.
// Logs go to stderr so that reports on stdout stay machine readable.
func setupLogger(verbose bool) *slog.Logger {
	logger := seclog.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// setupJSONLogger is setupLogger with JSON lines output, for servers whose
// logs are collected by an aggregator.
func setupJSONLogger(verbose bool) *slog.Logger {
	logger := seclog.NewSecureJSONLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// newScanner wires the three signals and the aggregator from cfg.
func newScanner(cfg *config.Config, logger *slog.Logger, metrics *telemetry.Metrics) (*scanner, error) {
	s := &scanner{cfg: cfg, logger: logger, metrics: metrics}

	analyzer := heuristic.NewAnalyzer(
		heuristic.WithLogger(logger),
		heuristic.WithKeywords(cfg.Keywords),
		heuristic.WithExtendedRules(cfg.ExtendedRules),
		heuristic.WithSuspiciousTLDs(cfg.SuspiciousTLDs),
	)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
		pipeline.WithPolicy(pipeline.Policy{
			Weights:       cfg.Weights,
			BlacklistVeto: cfg.BlacklistVeto,
		}),
	}

	source, err := s.reputationSource()
	if err != nil {
		return nil, err
	}
	if source != nil {
		checker := reputation.NewChecker(source, logger)
		opts = append(opts, pipeline.WithSignal(pipeline.NewReputationStep(checker), cfg.ReputationTimeout))
	}

	if cfg.ModelPath != "" {
		model, err := ensemble.LoadBundle(cfg.ModelPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load classifier: %w", err)
		}
		if model.Dimension() != features.Dimension {
			return nil, fmt.Errorf("failed to load classifier: %w: bundle expects %d features, extractor produces %d",
				ensemble.ErrModelUnavailable, model.Dimension(), features.Dimension)
		}
		s.model = model
		logger.Info("classifier loaded",
			"models", model.Models(),
			"version", model.Version(),
			"digest", model.Digest())
		opts = append(opts, pipeline.WithSignal(pipeline.NewClassifierStep(model), cfg.ClassifierTimeout))
	}

	s.aggregator = pipeline.NewAggregator(pipeline.NewHeuristicStep(analyzer), opts...)
	return s, nil
}

// reputationSource builds the blacklist source for the configured mode.
// It returns nil when the reputation signal is disabled entirely.
func (s *scanner) reputationSource() (reputation.Source, error) {
	cfg := s.cfg

	var primary reputation.Source
	switch cfg.ReputationMode {
	case config.ReputationSnapshot:
		client, err := s.httpClient()
		if err != nil {
			return nil, err
		}
		s.snapshot = reputation.NewSnapshotSource(cfg.MatchHosts)
		s.updater = reputation.NewUpdater(s.snapshot,
			reputation.NewFeed(cfg.FeedLocation, client.HTTPClient()),
			reputation.WithInterval(cfg.RefreshInterval),
			reputation.WithCachePath(cfg.FeedCachePath()),
			reputation.WithUpdaterLogger(s.logger),
			reputation.WithMetrics(s.metrics),
		)
		primary = s.snapshot
	case config.ReputationAPI:
		client, err := s.httpClient(netclient.WithHeader("X-API-Key", cfg.APIKey))
		if err != nil {
			return nil, err
		}
		api, err := reputation.NewAPISource(cfg.APIEndpoint, client.HTTPClient(),
			reputation.WithRateLimit(cfg.APIRateLimit, cfg.APIBurst))
		if err != nil {
			return nil, err
		}
		primary = api
	}

	if len(cfg.Blocklist) == 0 {
		return primary, nil
	}
	static := reputation.NewStaticSource(cfg.Blocklist)
	if primary == nil {
		return static, nil
	}
	return reputation.NewMultiSource(primary, static), nil
}

func (s *scanner) httpClient(opts ...netclient.Option) (*netclient.Client, error) {
	base := []netclient.Option{
		netclient.WithProxy(s.cfg.ProxyAddress),
		netclient.WithHeader("User-Agent", s.cfg.UserAgent),
	}
	client, err := netclient.New(s.cfg.HTTPTimeout, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return client, nil
}

// modelDigest returns the loaded classifier digest or "".
func (s *scanner) modelDigest() string {
	if s.model == nil {
		return ""
	}
	return s.model.Digest()
}
