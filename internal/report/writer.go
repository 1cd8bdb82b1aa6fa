package report

import (
	"io"

	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
)

// Writer defines the interface for report output.
// Implementations write scoring results in various formats.
type Writer interface {
	// Write outputs one aggregate result.
	// Returns the number of bytes written and any error encountered.
	Write(res *model.AggregateResult) (int, error)

	// WriteBatch outputs the results of a batch run in input order.
	WriteBatch(entries []Entry) (int, error)

	// WriteHistory outputs stored scan history records.
	WriteHistory(records []database.ScanRecord) (int, error)
}

// Entry is one line of a batch report.
// Exactly one of Result and Error is set.
type Entry struct {
	URL    string                 `json:"url"`
	Result *model.AggregateResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// NewEntry builds an Entry from a scoring outcome.
func NewEntry(url string, res *model.AggregateResult, err error) Entry {
	e := Entry{URL: url, Result: res}
	if err != nil {
		e.Result = nil
		e.Error = err.Error()
	}
	return e
}

// MultiWriter writes to multiple Writers simultaneously.
// The CLI uses it to print a terminal summary while writing a report file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(res *model.AggregateResult) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(res) })
}

// WriteBatch outputs the batch to all configured Writers.
func (m *MultiWriter) WriteBatch(entries []Entry) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteBatch(entries) })
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(records []database.ScanRecord) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteHistory(records) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// batchCounts summarises a batch by safety level.
type batchCounts struct {
	high, medium, low, failed int
}

func countBatch(entries []Entry) batchCounts {
	var c batchCounts
	for _, e := range entries {
		if e.Result == nil {
			c.failed++
			continue
		}
		switch e.Result.SafetyLevel {
		case model.SafetyHigh:
			c.high++
		case model.SafetyMedium:
			c.medium++
		default:
			c.low++
		}
	}
	return c
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
