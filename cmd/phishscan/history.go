package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
)

// errScanNotFound is returned by `history --id` for an unknown scan.
var errScanNotFound = errors.New("scan not found")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously scored URLs",
		Long: `History lists results recorded by 'phishscan score' and 'phishscan serve',
newest first.

Examples:
  # Show the most recent scans
  phishscan history

  # Show the last 10 scans of one URL
  phishscan history --url http://example.com --limit 10

  # Show the full stored result of one scan
  phishscan history --id 4b1d0c7e-...

  # Output as JSON
  phishscan history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("url", "u", "",
		"Only show scans of this URL")
	cmd.Flags().String("id", "",
		"Show the full result of one scan")
	cmd.Flags().IntP("limit", "n", 0,
		fmt.Sprintf("Maximum number of entries (default %d)", config.DefaultHistoryLimit))
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}

	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.HistoryLimit
	}
	url, err := flags.GetString("url")
	if err != nil {
		return err
	}
	scanID, err := flags.GetString("id")
	if err != nil {
		return err
	}

	setupLogger(cfg.Verbose)
	ctx := commandContext(cmd)

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	w := newWriter(cfg, cmd.OutOrStdout())

	if scanID != "" {
		res, err := db.GetByScanID(ctx, scanID)
		if err != nil {
			return err
		}
		if res == nil {
			return fmt.Errorf("%w: %s", errScanNotFound, scanID)
		}
		_, err = w.Write(res)
		return err
	}

	var records []database.ScanRecord
	if url != "" {
		records, err = db.HistoryForURL(ctx, url, limit)
	} else {
		records, err = db.History(ctx, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	_, err = w.WriteHistory(records)
	return err
}
