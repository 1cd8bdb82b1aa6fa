package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/urlparse"
)

var (
	// ErrMalformedURL indicates input that cannot be decomposed into a URL.
	// No signal runs for such input.
	ErrMalformedURL = urlparse.ErrMalformedURL

	// ErrAggregateFailed indicates that no signal produced a usable result.
	ErrAggregateFailed = errors.New("no signal produced a usable result")

	// ErrSignalPanic is wrapped by the error of a signal that panicked.
	ErrSignalPanic = errors.New("signal panicked")
)

// AggregateError describes a request in which every signal failed or was
// unavailable. It unwraps to ErrAggregateFailed.
type AggregateError struct {
	URL      string
	Outcomes []model.SignalOutcome
}

// Error lists each signal's status.
func (e *AggregateError) Error() string {
	parts := make([]string, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		part := fmt.Sprintf("%s=%s", o.Signal, o.Status)
		if o.Reason != "" {
			part += "(" + o.Reason + ")"
		}
		parts = append(parts, part)
	}
	if e.URL == "" {
		return fmt.Sprintf("%s: %s", ErrAggregateFailed, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s for %s: %s", ErrAggregateFailed, e.URL, strings.Join(parts, ", "))
}

// Unwrap returns ErrAggregateFailed.
func (e *AggregateError) Unwrap() error {
	return ErrAggregateFailed
}
