package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for phishscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishscan",
		Short: "Phishing risk scoring for URLs",
		Long: `phishscan scores URLs for phishing risk from 0 (dangerous) to 100 (safe).

Each URL is checked by three independent signals:
- heuristics on the URL structure (keywords, dashes, IP hosts, length)
- a blacklist lookup (a refreshed feed snapshot or a reputation API)
- a machine-learned classifier ensemble (when a model bundle is configured)

Signals that fail or time out are skipped and the remaining scores are
reweighted, so a result is returned whenever at least one signal answers.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .phishscan in current or home directory)")

	cmd.AddCommand(NewScoreCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewFeedCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
