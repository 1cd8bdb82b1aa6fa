package reputation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/urlparse"
)

// mustRecord parses raw or fails the test.
func mustRecord(t *testing.T, raw string) *model.URLRecord {
	t.Helper()

	rec, err := urlparse.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", raw, err)
	}
	return rec
}

// TestNormalizeURL tests canonicalisation for comparison.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in       string
		expected string
	}{
		{"HTTP://Example.COM/Path/", "http://example.com/Path"},
		{"https://example.com/a?b=c#frag", "https://example.com/a?b=c"},
		{"http://example.com:8080/", "http://example.com:8080"},
		{"  http://example.com  ", "http://example.com"},
		{"not a url/", "not a url"},
	}
	for _, tc := range testCases {
		if got := NormalizeURL(tc.in); got != tc.expected {
			t.Errorf("NormalizeURL(%q) = %q, expected %q", tc.in, got, tc.expected)
		}
	}
}

// TestParseFeed tests feed line handling.
func TestParseFeed(t *testing.T) {
	t.Parallel()

	feed := "# OpenPhish\n\nhttp://evil.example/login\n  http://bad.example/  \n#comment\nphish.test\n"
	entries, err := ParseFeed(strings.NewReader(feed))
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(entries), entries)
	}
	if entries[1] != "http://bad.example/" {
		t.Errorf("entries[1] = %q, expected trimmed line", entries[1])
	}
}

// TestSnapshotContains tests URL and host matching.
func TestSnapshotContains(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot([]string{
		"http://evil.example/login",
		"phish.test",
	}, SnapshotMeta{Source: "test"})

	testCases := []struct {
		name       string
		raw        string
		matchHosts bool
		expected   bool
	}{
		{"exact url", "http://evil.example/login", false, true},
		{"url with trailing slash and case", "HTTP://EVIL.example/login/", false, true},
		{"other path without host matching", "http://evil.example/other", false, false},
		{"other path with host matching", "http://evil.example/other", true, true},
		{"bare host entry", "https://phish.test/anything", true, true},
		{"bare host entry ignored without host matching", "https://phish.test/anything", false, false},
		{"unlisted", "https://example.org/", true, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := snap.Contains(mustRecord(t, tc.raw), tc.matchHosts); got != tc.expected {
				t.Errorf("Contains(%q, %v) = %v, expected %v", tc.raw, tc.matchHosts, got, tc.expected)
			}
		})
	}
}

// TestSnapshotFingerprint tests that content identity ignores order and formatting.
func TestSnapshotFingerprint(t *testing.T) {
	t.Parallel()

	a := NewSnapshot([]string{"http://a.example/x", "b.example"}, SnapshotMeta{})
	b := NewSnapshot([]string{"B.example", "HTTP://A.example/x/"}, SnapshotMeta{})
	c := NewSnapshot([]string{"http://a.example/x"}, SnapshotMeta{})

	if !a.SameContent(b) {
		t.Error("expected equal content for reordered entries")
	}
	if a.SameContent(c) {
		t.Error("expected different content")
	}
	if a.SameContent(nil) {
		t.Error("expected nil snapshot to differ")
	}
	if len(a.Fingerprint()) != 64 {
		t.Errorf("Fingerprint() length = %d, expected 64", len(a.Fingerprint()))
	}
}

// TestSnapshotSource tests lookups against the current snapshot.
func TestSnapshotSource(t *testing.T) {
	t.Parallel()

	t.Run("empty source is unavailable", func(t *testing.T) {
		t.Parallel()

		src := NewSnapshotSource(true)
		_, err := src.Lookup(context.Background(), mustRecord(t, "http://example.com"))
		if !errors.Is(err, ErrUnavailable) || !errors.Is(err, ErrNoSnapshot) {
			t.Errorf("Lookup() error = %v, expected ErrUnavailable and ErrNoSnapshot", err)
		}
	})

	t.Run("lookup sees swapped snapshot", func(t *testing.T) {
		t.Parallel()

		src := NewSnapshotSource(true)
		rec := mustRecord(t, "http://evil.example/login")

		src.Store(NewSnapshot([]string{"other.example"}, SnapshotMeta{Source: "v1"}))
		v, err := src.Lookup(context.Background(), rec)
		if err != nil || v.Hit {
			t.Fatalf("Lookup() = %+v, %v; expected miss", v, err)
		}

		src.Store(NewSnapshot([]string{"evil.example"}, SnapshotMeta{Source: "v2"}))
		v, err = src.Lookup(context.Background(), rec)
		if err != nil || !v.Hit || v.Source != "v2" {
			t.Fatalf("Lookup() = %+v, %v; expected hit from v2", v, err)
		}
	})

	t.Run("concurrent readers during swaps", func(t *testing.T) {
		t.Parallel()

		src := NewSnapshotSource(true)
		src.Store(NewSnapshot([]string{"evil.example"}, SnapshotMeta{}))
		rec := mustRecord(t, "http://evil.example/")

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for range 200 {
					if i == 0 {
						src.Store(NewSnapshot([]string{"evil.example"}, SnapshotMeta{}))
						continue
					}
					if v, err := src.Lookup(context.Background(), rec); err != nil || !v.Hit {
						t.Errorf("Lookup() = %+v, %v; expected hit", v, err)
						return
					}
				}
			}(i)
		}
		wg.Wait()
	})
}
