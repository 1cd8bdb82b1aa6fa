package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/pipeline"
	"github.com/nao1215/phishscan/internal/report"
)

// NewScoreCmd creates the score command.
func NewScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [url]...",
		Short: "Score URLs for phishing risk",
		Long: `Score computes a phishing risk score for each URL, from 0 (dangerous) to 100 (safe).

The heuristic signal always runs. The blacklist lookup and the classifier run
concurrently with their own timeouts; a signal that fails is skipped and the
result is marked degraded. A confirmed blacklist hit forces the score to 0.

Examples:
  # Score a single URL
  phishscan score http://paypal-login.example.xyz

  # Score every URL in a file (one per line, # starts a comment)
  phishscan score --list urls.txt

  # Use a local feed file and a classifier bundle
  phishscan score --feed ./feed.txt --model ./bundle.json http://example.com

  # Output a JSON report to a file
  phishscan score --json -o report.json http://example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runScoreCmd,
	}

	cmd.Flags().StringP("list", "l", "",
		"Read URLs from a file, one per line")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of URLs scored concurrently")

	// Signal flags
	cmd.Flags().String("model", "",
		"Classifier model bundle (JSON); empty disables the classifier")
	cmd.Flags().String("feed", "",
		"Blacklist feed URL or file path")
	cmd.Flags().String("reputation", "",
		"Reputation mode: snapshot, api or off")
	cmd.Flags().String("reputation-api", "",
		"Reputation API endpoint (implies --reputation api)")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy for feed and API traffic (host:port)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-history", false,
		"Do not record results in the history database")

	return cmd
}

// runScoreCmd executes the score command.
func runScoreCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildScoreConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateScan(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScore(ctx, cmd.OutOrStdout(), cfg, logger)
}

// buildScoreConfig loads the configuration file and applies flags on top.
// Only flags set on the command line override file values.
func buildScoreConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
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
	if flags.Changed("reputation") {
		if cfg.ReputationMode, err = flags.GetString("reputation"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("reputation-api") {
		if cfg.APIEndpoint, err = flags.GetString("reputation-api"); err != nil {
			return nil, err
		}
		cfg.ReputationMode = config.ReputationAPI
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveToDB = false
	}

	listFile, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	cfg.Targets = append([]string(nil), args...)
	if listFile != "" {
		urls, err := readURLList(listFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, urls...)
	}

	return cfg, nil
}

// readURLList reads one URL per line. Blank lines and lines starting
// with # are skipped.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path is given by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}

// runScore scores cfg.Targets and writes the report.
func runScore(ctx context.Context, stdout io.Writer, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting scoring",
		"targets", len(cfg.Targets),
		"reputationMode", cfg.ReputationMode,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	s, err := newScanner(cfg, logger, nil)
	if err != nil {
		return err
	}
	if s.updater != nil {
		loadSnapshot(ctx, s, logger)
	}

	var db *database.ScanDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	bp := pipeline.NewBatchProcessor(s.aggregator,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	results, err := bp.ScoreAll(ctx, cfg.Targets)
	if err != nil {
		return err
	}
	logger.Debug("scoring finished", "elapsed", time.Since(startTime).Round(time.Millisecond))

	entries := make([]report.Entry, 0, len(results))
	failed := 0
	for _, r := range results {
		entries = append(entries, report.NewEntry(r.URL, r.Result, r.Err))
		if r.Err != nil {
			failed++
			continue
		}
		saveResult(ctx, db, r.Result, logger)
	}

	if len(entries) == 1 && failed == 1 {
		return fmt.Errorf("failed to score %s: %w", entries[0].URL, results[0].Err)
	}

	if err := outputReport(stdout, cfg, entries); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d URLs could not be scored", failed, len(entries))
	}
	return nil
}

// loadSnapshot fills the blacklist snapshot before a one-shot run. The
// cached feed is used while it is fresh; otherwise the feed is fetched
// once. Without any snapshot the reputation signal reports unavailable.
func loadSnapshot(ctx context.Context, s *scanner, logger *slog.Logger) {
	snap, err := s.updater.WarmFromCache()
	if err == nil && time.Since(snap.Meta().FetchedAt) < s.cfg.RefreshInterval {
		return
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load blacklist cache", "error", err)
	}

	if _, err := s.updater.Refresh(ctx); err != nil && s.snapshot.Current() == nil {
		logger.Warn("no blacklist snapshot available, reputation signal will be skipped", "error", err)
	}
}

// saveResult records res in db when history is enabled.
func saveResult(ctx context.Context, db *database.ScanDB, res *model.AggregateResult, logger *slog.Logger) {
	if db == nil || res == nil {
		return
	}
	if _, err := db.Save(ctx, res); err != nil {
		logger.Error("failed to save scan result", "url", res.URL, "error", err)
	}
}

// newWriter returns the report writer for the configured format.
func newWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport writes entries to the report file or stdout. A single
// scored URL gets a full report; several URLs get a batch report. When a
// structured report goes to a file, a plain summary is printed as well.
func outputReport(stdout io.Writer, cfg *config.Config, entries []report.Entry) error {
	var w report.Writer
	if cfg.ReportFile == "" {
		w = newWriter(cfg, stdout)
	} else {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()

		w = newWriter(cfg, f)
		if cfg.JSONReport || cfg.MarkdownReport {
			w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout))
		}
	}

	var err error
	if len(entries) == 1 && entries[0].Result != nil {
		_, err = w.Write(entries[0].Result)
	} else {
		_, err = w.WriteBatch(entries)
	}
	if err != nil {
		return err
	}

	if cfg.ReportFile != "" {
		fmt.Fprintf(stdout, "Report saved to: %s\n", cfg.ReportFile)
	}
	return nil
}
