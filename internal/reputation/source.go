package reputation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/phishscan/internal/model"
)

// Verdict is a confirmed lookup outcome.
type Verdict struct {
	// Hit is true when the URL is listed.
	Hit bool `json:"hit"`
	// Source names the list or service that produced the verdict.
	Source string `json:"source"`
}

// Source looks up a URL. An error means no verdict is available.
type Source interface {
	Name() string
	Lookup(ctx context.Context, rec *model.URLRecord) (Verdict, error)
}

// StaticSource is an operator-maintained blocklist from configuration.
type StaticSource struct {
	snapshot *Snapshot
}

// NewStaticSource builds a blocklist from host names and URLs.
func NewStaticSource(entries []string) *StaticSource {
	return &StaticSource{snapshot: NewSnapshot(entries, SnapshotMeta{Source: "static"})}
}

// Name returns "static".
func (s *StaticSource) Name() string { return "static" }

// Len returns the number of configured entries.
func (s *StaticSource) Len() int { return s.snapshot.Len() }

// Lookup reports whether rec's URL or host is on the blocklist.
func (s *StaticSource) Lookup(_ context.Context, rec *model.URLRecord) (Verdict, error) {
	return Verdict{Hit: s.snapshot.Contains(rec, true), Source: s.Name()}, nil
}

// MultiSource consults overlay sources for hits before deferring to a primary source.
// Overlay errors and misses are ignored; the primary's verdict or error is
// returned when no overlay reports a hit.
type MultiSource struct {
	primary  Source
	overlays []Source
}

// NewMultiSource creates a MultiSource.
func NewMultiSource(primary Source, overlays ...Source) *MultiSource {
	return &MultiSource{primary: primary, overlays: overlays}
}

// Name joins the names of all layered sources.
func (m *MultiSource) Name() string {
	names := make([]string, 0, len(m.overlays)+1)
	for _, o := range m.overlays {
		names = append(names, o.Name())
	}
	names = append(names, m.primary.Name())
	return strings.Join(names, "+")
}

// Lookup implements Source.
func (m *MultiSource) Lookup(ctx context.Context, rec *model.URLRecord) (Verdict, error) {
	for _, o := range m.overlays {
		if v, err := o.Lookup(ctx, rec); err == nil && v.Hit {
			return v, nil
		}
	}
	return m.primary.Lookup(ctx, rec)
}

// unavailable wraps err so that errors.Is(err, ErrUnavailable) holds.
func unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
