package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv is an isolated config, feed, cache and history directory.
type testEnv struct {
	dir        string
	configPath string
	feedPath   string
}

// newTestEnv writes a snapshot-mode configuration whose feed lists entries.
func newTestEnv(t *testing.T, entries ...string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "phishscan.yaml"),
		feedPath:   filepath.Join(dir, "feed.txt"),
	}

	feed := "# test feed\n" + strings.Join(entries, "\n") + "\n"
	if err := os.WriteFile(env.feedPath, []byte(feed), 0600); err != nil {
		t.Fatalf("failed to write feed: %v", err)
	}

	cfg := fmt.Sprintf(`reputation:
  mode: snapshot
  feed: %q
  cache_dir: %q
history:
  dir: %q
`, env.feedPath, env.cacheDir(), env.dataDir())
	if err := os.WriteFile(env.configPath, []byte(cfg), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return env
}

func (e *testEnv) cacheDir() string { return filepath.Join(e.dir, "cache") }
func (e *testEnv) dataDir() string  { return filepath.Join(e.dir, "data") }

// run executes the root command with the environment's config file.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"-c", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "phishscan" {
			t.Errorf("expected use 'phishscan', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions and version", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty descriptions")
		}
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name      string
			shorthand string
			defValue  string
		}{
			{"verbose", "v", "false"},
			{"config", "c", ""},
		}
		for _, tc := range testCases {
			flag := cmd.PersistentFlags().Lookup(tc.name)
			if flag == nil {
				t.Errorf("expected %s flag", tc.name)
				continue
			}
			if flag.Shorthand != tc.shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", tc.name, tc.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tc.defValue {
				t.Errorf("%s: expected default %q, got %q", tc.name, tc.defValue, flag.DefValue)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, want := range []string{"score", "serve", "history", "feed", "init", "version"} {
			if !names[want] {
				t.Errorf("expected %s subcommand", want)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

// TestMissingConfigFile tests that an explicit config path must exist.
func TestMissingConfigFile(t *testing.T) {
	env := &testEnv{configPath: filepath.Join(t.TempDir(), "missing.yaml")}

	_, err := env.run(t, "history")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected 'not found' error, got %v", err)
	}
}
