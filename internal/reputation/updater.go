package reputation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/nao1215/phishscan/internal/telemetry"
)

const (
	// DefaultRefreshInterval matches the update cadence of the public feeds.
	DefaultRefreshInterval = 12 * time.Hour

	// DefaultMaxFeedBytes bounds the size of a downloaded feed.
	DefaultMaxFeedBytes = 64 << 20
)

// Updater is the single writer of a SnapshotSource. It downloads the feed,
// builds a new Snapshot and swaps it in. A failed refresh keeps the
// previous snapshot.
type Updater struct {
	target    *SnapshotSource
	feed      Feed
	interval  time.Duration
	cachePath string
	maxBytes  int64
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	running   atomic.Bool
	now       func() time.Time
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithInterval sets the refresh interval.
func WithInterval(d time.Duration) UpdaterOption {
	return func(u *Updater) {
		if d > 0 {
			u.interval = d
		}
	}
}

// WithCachePath persists every downloaded feed to path and warms the
// snapshot from it on start.
func WithCachePath(path string) UpdaterOption {
	return func(u *Updater) {
		u.cachePath = path
	}
}

// WithMaxFeedBytes sets the largest feed accepted. A larger feed fails
// the refresh.
func WithMaxFeedBytes(n int64) UpdaterOption {
	return func(u *Updater) {
		if n > 0 {
			u.maxBytes = n
		}
	}
}

// WithUpdaterLogger sets the logger.
func WithUpdaterLogger(logger *slog.Logger) UpdaterOption {
	return func(u *Updater) {
		u.logger = logger
	}
}

// WithMetrics reports refreshes to m.
func WithMetrics(m *telemetry.Metrics) UpdaterOption {
	return func(u *Updater) {
		u.metrics = m
	}
}

// NewUpdater creates an updater for target fed by feed.
func NewUpdater(target *SnapshotSource, feed Feed, opts ...UpdaterOption) *Updater {
	u := &Updater{
		target:   target,
		feed:     feed,
		interval: DefaultRefreshInterval,
		maxBytes: DefaultMaxFeedBytes,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Refresh downloads the feed once and swaps in the new snapshot.
func (u *Updater) Refresh(ctx context.Context) (*Snapshot, error) {
	snap, raw, err := u.fetch(ctx)
	u.metrics.RecordSnapshotRefresh(snap.lenOrZero(), err)
	if err != nil {
		u.logger.Warn("blacklist refresh failed", "feed", u.feed.Name(), "error", err)
		return nil, err
	}

	u.target.Store(snap)
	u.logger.Info("blacklist snapshot updated",
		"feed", u.feed.Name(),
		"entries", snap.Len(),
		"fingerprint", snap.Fingerprint())

	if u.cachePath != "" {
		if err := writeCache(u.cachePath, raw); err != nil {
			u.logger.Warn("failed to write blacklist cache", "path", u.cachePath, "error", err)
		}
	}
	return snap, nil
}

func (u *Updater) fetch(ctx context.Context) (*Snapshot, []byte, error) {
	rc, err := u.feed.Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, u.maxBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read feed: %w", err)
	}
	if int64(len(raw)) > u.maxBytes {
		return nil, nil, fmt.Errorf("%w: more than %d bytes", ErrFeedTooLarge, u.maxBytes)
	}
	entries, err := ParseFeed(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, nil, ErrEmptyFeed
	}
	return NewSnapshot(entries, SnapshotMeta{Source: u.feed.Name(), FetchedAt: u.now()}), raw, nil
}

// WarmFromCache loads the cached feed into the target. The snapshot's
// fetch time is the cache file's modification time.
func (u *Updater) WarmFromCache() (*Snapshot, error) {
	if u.cachePath == "" {
		return nil, fs.ErrNotExist
	}
	info, err := os.Stat(u.cachePath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(u.cachePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	entries, err := ParseFeed(file)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyFeed
	}

	snap := NewSnapshot(entries, SnapshotMeta{Source: "cache:" + u.feed.Name(), FetchedAt: info.ModTime()})
	u.target.Store(snap)
	u.metrics.RecordSnapshotRefresh(snap.Len(), nil)
	u.logger.Debug("blacklist snapshot loaded from cache", "path", u.cachePath, "entries", snap.Len())
	return snap, nil
}

// Run keeps the snapshot fresh until ctx is cancelled. It warms from the
// cache, refreshes immediately when the cache is missing or stale, and then
// refreshes every interval. Only one Run may be active per Updater.
func (u *Updater) Run(ctx context.Context) error {
	if !u.running.CompareAndSwap(false, true) {
		return ErrUpdaterRunning
	}
	defer u.running.Store(false)

	delay := time.Duration(0)
	if u.target.Current() == nil {
		snap, err := u.WarmFromCache()
		switch {
		case err == nil:
			if age := u.now().Sub(snap.Meta().FetchedAt); age < u.interval {
				delay = u.interval - age
			}
		case !errors.Is(err, fs.ErrNotExist):
			u.logger.Warn("failed to load blacklist cache", "path", u.cachePath, "error", err)
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			_, _ = u.Refresh(ctx)
			timer.Reset(u.interval)
		}
	}
}

// Running reports whether Run is active.
func (u *Updater) Running() bool {
	return u.running.Load()
}

func (s *Snapshot) lenOrZero() int {
	if s == nil {
		return 0
	}
	return s.Len()
}

// writeCache replaces path atomically with data, readable only by the owner.
func writeCache(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".feed-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // best-effort cleanup after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set cache permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}
	return os.Rename(tmpName, path)
}
