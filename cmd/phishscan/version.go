package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/model"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// versionInfo is printed by `phishscan version`.
type versionInfo struct {
	Version           string `json:"version"`
	Commit            string `json:"commit"`
	Date              string `json:"built"`
	GoVersion         string `json:"go"`
	ThreatTagsVersion int    `json:"threat_tags_version"`
}

// getVersion returns version string.
// Priority: ldflags > debug.ReadBuildInfo > "(devel)"
func getVersion() string {
	if version != "" {
		return version
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok && buildInfo.Main.Version != "" {
		return buildInfo.Main.Version
	}
	return "(devel)"
}

// getCommit returns the short commit hash.
// Priority: ldflags > vcs.revision > "unknown"
func getCommit() string {
	if commit != "" {
		return commit
	}
	rev := buildSetting("vcs.revision")
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// getDate returns build date.
// Priority: ldflags > vcs.time > "unknown"
func getDate() string {
	if date != "" {
		return date
	}
	return buildSetting("vcs.time")
}

func buildSetting(key string) string {
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			if setting.Key == key && setting.Value != "" {
				return setting.Value
			}
		}
	}
	return "unknown"
}

func currentVersion() versionInfo {
	return versionInfo{
		Version:           getVersion(),
		Commit:            getCommit(),
		Date:              getDate(),
		GoVersion:         runtime.Version(),
		ThreatTagsVersion: model.ThreatTagsVersion,
	}
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash, and build date of phishscan, together with
the threat tag enumeration version used in reports and API responses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			info := currentVersion()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintf(out, "phishscan version %s\n", info.Version)
			fmt.Fprintf(out, "  commit:      %s\n", info.Commit)
			fmt.Fprintf(out, "  built:       %s\n", info.Date)
			fmt.Fprintf(out, "  go:          %s\n", info.GoVersion)
			fmt.Fprintf(out, "  threat tags: v%d\n", info.ThreatTagsVersion)
			return nil
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output version information as JSON")
	return cmd
}
