package reputation

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/urlparse"
)

// maxFeedLineLength bounds a single feed line.
const maxFeedLineLength = 64 * 1024

// SnapshotMeta describes where a snapshot came from.
type SnapshotMeta struct {
	Source    string
	FetchedAt time.Time
}

// Snapshot is an immutable view of a blacklist. It is never modified after
// NewSnapshot returns and may be shared freely between goroutines.
type Snapshot struct {
	urls        map[string]struct{}
	hosts       map[string]struct{}
	meta        SnapshotMeta
	fingerprint string
}

// NewSnapshot indexes entries. Entries may be full URLs or bare host names.
func NewSnapshot(entries []string, meta SnapshotMeta) *Snapshot {
	s := &Snapshot{
		urls:  make(map[string]struct{}, len(entries)),
		hosts: make(map[string]struct{}, len(entries)),
		meta:  meta,
	}

	normalized := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "://") {
			host := urlparse.NormalizeHost(strings.TrimSuffix(e, "/"))
			s.hosts[host] = struct{}{}
			normalized = append(normalized, host)
			continue
		}
		key := NormalizeURL(e)
		s.urls[key] = struct{}{}
		normalized = append(normalized, key)
		if u, err := url.Parse(e); err == nil && u.Hostname() != "" {
			s.hosts[urlparse.NormalizeHost(u.Hostname())] = struct{}{}
		}
	}

	slices.Sort(normalized)
	h := sha3.New256()
	for _, n := range normalized {
		_, _ = io.WriteString(h, n)
		_, _ = h.Write([]byte{'\n'})
	}
	s.fingerprint = hex.EncodeToString(h.Sum(nil))
	return s
}

// Contains reports whether rec is listed. The full URL is always checked;
// the host is checked only when matchHosts is true.
func (s *Snapshot) Contains(rec *model.URLRecord, matchHosts bool) bool {
	if _, ok := s.urls[NormalizeURL(rec.Raw)]; ok {
		return true
	}
	if matchHosts {
		if _, ok := s.hosts[rec.Host]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of distinct URL and host entries.
func (s *Snapshot) Len() int {
	return len(s.urls) + len(s.hosts)
}

// Meta returns the snapshot metadata.
func (s *Snapshot) Meta() SnapshotMeta {
	return s.meta
}

// Fingerprint returns the SHA3-256 digest of the normalised entries.
func (s *Snapshot) Fingerprint() string {
	return s.fingerprint
}

// SameContent reports whether two snapshots index the same entries.
func (s *Snapshot) SameContent(other *Snapshot) bool {
	if other == nil {
		return false
	}
	return s.fingerprint == other.fingerprint
}

// NormalizeURL canonicalises a URL for blacklist comparison: lower-case
// scheme and host, no fragment, no trailing slash on the path.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(raw), "/")
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(u.Scheme))
	b.WriteString("://")
	b.WriteString(urlparse.NormalizeHost(u.Hostname()))
	if port := u.Port(); port != "" {
		b.WriteString(":")
		b.WriteString(port)
	}
	b.WriteString(strings.TrimSuffix(u.EscapedPath(), "/"))
	if u.RawQuery != "" {
		b.WriteString("?")
		b.WriteString(u.RawQuery)
	}
	return b.String()
}

// ParseFeed reads one entry per line. Blank lines and lines starting with
// '#' are ignored.
func ParseFeed(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxFeedLineLength)

	entries := make([]string, 0)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	return entries, nil
}

// SnapshotSource serves lookups from the current snapshot.
// The snapshot pointer is swapped atomically; readers never block.
type SnapshotSource struct {
	current    atomic.Pointer[Snapshot]
	matchHosts bool
}

// NewSnapshotSource creates an empty source. When matchHosts is true a
// listed host matches every URL on that host.
func NewSnapshotSource(matchHosts bool) *SnapshotSource {
	return &SnapshotSource{matchHosts: matchHosts}
}

// Name returns "snapshot".
func (s *SnapshotSource) Name() string { return "snapshot" }

// Store replaces the current snapshot.
func (s *SnapshotSource) Store(snap *Snapshot) {
	s.current.Store(snap)
}

// Current returns the active snapshot or nil.
func (s *SnapshotSource) Current() *Snapshot {
	return s.current.Load()
}

// Lookup checks rec against the snapshot loaded at call time.
func (s *SnapshotSource) Lookup(_ context.Context, rec *model.URLRecord) (Verdict, error) {
	snap := s.current.Load()
	if snap == nil {
		return Verdict{}, unavailable(ErrNoSnapshot)
	}
	return Verdict{Hit: snap.Contains(rec, s.matchHosts), Source: snap.meta.Source}, nil
}
