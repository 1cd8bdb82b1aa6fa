package reputation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/phishscan/internal/telemetry"
)

// TestNewFeed tests feed selection by location.
func TestNewFeed(t *testing.T) {
	t.Parallel()

	if _, ok := NewFeed("https://feed.example/list.txt", nil).(*HTTPFeed); !ok {
		t.Error("expected HTTPFeed for https location")
	}
	if _, ok := NewFeed("HTTP://feed.example/list.txt", nil).(*HTTPFeed); !ok {
		t.Error("expected HTTPFeed for upper-case scheme")
	}
	if _, ok := NewFeed("/var/lib/feed.txt", nil).(*FileFeed); !ok {
		t.Error("expected FileFeed for path")
	}
}

// TestHTTPFeedStatus tests that non-200 responses are rejected.
func TestHTTPFeedStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := NewHTTPFeed(srv.URL, srv.Client()).Open(context.Background())
	if !errors.Is(err, ErrFeedStatus) {
		t.Errorf("Open() error = %v, expected ErrFeedStatus", err)
	}
}

// TestUpdaterRefresh tests snapshot replacement and failure handling.
func TestUpdaterRefresh(t *testing.T) {
	t.Parallel()

	var body atomic.Value
	body.Store("http://evil.example/login\n")
	var fail atomic.Bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, body.Load().(string))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cache := filepath.Join(dir, "cache", "feed.txt")
	metrics := telemetry.New()
	src := NewSnapshotSource(true)
	u := NewUpdater(src, NewHTTPFeed(srv.URL, srv.Client()), WithCachePath(cache), WithMetrics(metrics))

	snap, err := u.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if src.Current() != snap {
		t.Error("expected refreshed snapshot to be current")
	}

	info, err := os.Stat(cache)
	if err != nil {
		t.Fatalf("cache not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("cache permissions = %o, expected 600", perm)
	}

	t.Run("failed refresh keeps previous snapshot", func(t *testing.T) {
		fail.Store(true)
		defer fail.Store(false)

		if _, err := u.Refresh(context.Background()); err == nil {
			t.Fatal("expected error from failing feed")
		}
		if src.Current() != snap {
			t.Error("expected previous snapshot to remain current")
		}
	})

	t.Run("empty feed is rejected", func(t *testing.T) {
		body.Store("# nothing today\n")
		defer body.Store("http://evil.example/login\n")

		if _, err := u.Refresh(context.Background()); !errors.Is(err, ErrEmptyFeed) {
			t.Fatalf("Refresh() error = %v, expected ErrEmptyFeed", err)
		}
		if src.Current() != snap {
			t.Error("expected previous snapshot to remain current")
		}
	})
}

// TestUpdaterFeedSizeLimit tests that an oversized feed fails the refresh
// instead of being truncated.
func TestUpdaterFeedSizeLimit(t *testing.T) {
	t.Parallel()

	feed := "evil.example\nother.example\n"
	path := filepath.Join(t.TempDir(), "feed.txt")
	if err := os.WriteFile(path, []byte(feed), 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("over the limit", func(t *testing.T) {
		t.Parallel()

		src := NewSnapshotSource(true)
		u := NewUpdater(src, NewFileFeed(path), WithMaxFeedBytes(int64(len(feed)-1)))
		if _, err := u.Refresh(context.Background()); !errors.Is(err, ErrFeedTooLarge) {
			t.Fatalf("Refresh() error = %v, expected ErrFeedTooLarge", err)
		}
		if src.Current() != nil {
			t.Error("expected no snapshot from an oversized feed")
		}
	})

	t.Run("exactly the limit", func(t *testing.T) {
		t.Parallel()

		u := NewUpdater(NewSnapshotSource(true), NewFileFeed(path), WithMaxFeedBytes(int64(len(feed))))
		snap, err := u.Refresh(context.Background())
		if err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
		if snap.Len() != 2 {
			t.Errorf("Len() = %d, expected 2", snap.Len())
		}
	})
}

// TestUpdaterWarmFromCache tests warm start from a cached feed.
func TestUpdaterWarmFromCache(t *testing.T) {
	t.Parallel()

	cache := filepath.Join(t.TempDir(), "feed.txt")
	if err := os.WriteFile(cache, []byte("cached.example\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	src := NewSnapshotSource(true)
	u := NewUpdater(src, NewFileFeed("/does/not/exist"), WithCachePath(cache))
	snap, err := u.WarmFromCache()
	if err != nil {
		t.Fatalf("WarmFromCache() error = %v", err)
	}
	if !strings.HasPrefix(snap.Meta().Source, "cache:") {
		t.Errorf("Source = %q, expected cache prefix", snap.Meta().Source)
	}
	v, err := src.Lookup(context.Background(), mustRecord(t, "https://cached.example/x"))
	if err != nil || !v.Hit {
		t.Errorf("Lookup() = %+v, %v; expected hit from cache", v, err)
	}

	t.Run("missing cache", func(t *testing.T) {
		t.Parallel()

		u := NewUpdater(NewSnapshotSource(true), NewFileFeed("x"), WithCachePath(filepath.Join(t.TempDir(), "none")))
		if _, err := u.WarmFromCache(); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("WarmFromCache() error = %v, expected not-exist", err)
		}
	})
}

// TestUpdaterRun tests the refresh loop lifecycle.
func TestUpdaterRun(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := hits.Add(1)
		fmt.Fprintf(w, "http://gen%d.example/\n", n)
	}))
	t.Cleanup(srv.Close)

	src := NewSnapshotSource(false)
	u := NewUpdater(src, NewHTTPFeed(srv.URL, srv.Client()), WithInterval(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- u.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for hits.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hits.Load() < 3 {
		t.Fatalf("expected at least 3 refreshes, got %d", hits.Load())
	}

	if err := u.Run(ctx); !errors.Is(err, ErrUpdaterRunning) {
		t.Errorf("second Run() error = %v, expected ErrUpdaterRunning", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if src.Current() == nil {
		t.Error("expected a snapshot after Run")
	}
}
