package urlparse

import (
	"errors"
	"fmt"

	"github.com/nao1215/phishscan/internal/model"
)

var (
	// ErrMalformedURL indicates the input cannot be decomposed into URL components.
	ErrMalformedURL = errors.New("malformed URL")

	// ErrDisqualified indicates the URL decomposed but is not an http(s) URL with a host.
	ErrDisqualified = errors.New("URL is not a web URL")
)

// DisqualifiedError carries the partial record of a disqualified URL.
type DisqualifiedError struct {
	// Record is the decomposed URL.
	Record *model.URLRecord
	// Threats lists the tags describing the disqualification.
	Threats []model.ThreatTag
}

// Error implements error.
func (e *DisqualifiedError) Error() string {
	return fmt.Sprintf("%s: scheme=%q host=%q", ErrDisqualified, e.Record.Scheme, e.Record.Host)
}

// Unwrap lets errors.Is match ErrDisqualified.
func (e *DisqualifiedError) Unwrap() error {
	return ErrDisqualified
}
