package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/config"
)

// errNotSnapshotMode is returned by `feed` when no feed is in use.
var errNotSnapshotMode = errors.New("feed refresh requires reputation mode snapshot")

// NewFeedCmd creates the feed command.
func NewFeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Download the blacklist feed into the local cache",
		Long: `Feed downloads the configured blacklist feed once and stores it in the
cache directory. Later 'phishscan score' runs use the cached copy until it is
older than the refresh interval.

Examples:
  # Refresh the default feed
  phishscan feed

  # Load a local feed file into the cache
  phishscan feed --feed ./feed.txt`,
		Args: cobra.NoArgs,
		RunE: runFeedCmd,
	}

	cmd.Flags().String("feed", "",
		"Blacklist feed URL or file path")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy for the download (host:port)")

	return cmd
}

// runFeedCmd executes the feed command.
func runFeedCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("feed") {
		if cfg.FeedLocation, err = flags.GetString("feed"); err != nil {
			return err
		}
		cfg.ReputationMode = config.ReputationSnapshot
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if cfg.ReputationMode != config.ReputationSnapshot {
		return errNotSnapshotMode
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)

	s, err := newScanner(cfg, logger, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	snap, err := s.updater.Refresh(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to refresh blacklist feed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Feed:        %s\n", snap.Meta().Source)
	fmt.Fprintf(out, "Entries:     %d\n", snap.Len())
	fmt.Fprintf(out, "Fingerprint: %s\n", snap.Fingerprint())
	fmt.Fprintf(out, "Cache:       %s\n", cfg.FeedCachePath())
	fmt.Fprintf(out, "Elapsed:     %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
