package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
)

// JSONWriter outputs results in JSON format.
// The encoding matches the HTTP API responses, so scripts can consume
// either interchangeably.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs a single result in JSON format.
func (w *JSONWriter) Write(res *model.AggregateResult) (int, error) {
	return w.writeJSON(res)
}

// WriteBatch outputs the batch entries as a JSON array.
func (w *JSONWriter) WriteBatch(entries []Entry) (int, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return w.writeJSON(entries)
}

// WriteHistory outputs history records as a JSON array.
func (w *JSONWriter) WriteHistory(records []database.ScanRecord) (int, error) {
	if records == nil {
		records = []database.ScanRecord{}
	}
	return w.writeJSON(records)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps a result with the version of the tool that produced it.
type JSONReport struct {
	// Version is the phishscan version that generated this report.
	Version string `json:"version"`

	// ThreatTagsVersion identifies the threat tag enumeration in use.
	ThreatTagsVersion int `json:"threat_tags_version"`

	// Result is set for single-URL reports.
	Result *model.AggregateResult `json:"result,omitempty"`

	// Results is set for batch reports.
	Results []Entry `json:"results,omitempty"`
}

// FullJSONWriter outputs reports with a metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the phishscan version string.
	version string
}

// NewFullJSONWriter creates a writer for reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the result wrapped with metadata.
func (w *FullJSONWriter) Write(res *model.AggregateResult) (int, error) {
	return w.writeJSON(w.wrap(res, nil))
}

// WriteBatch outputs the batch wrapped with metadata.
func (w *FullJSONWriter) WriteBatch(entries []Entry) (int, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return w.writeJSON(w.wrap(nil, entries))
}

func (w *FullJSONWriter) wrap(res *model.AggregateResult, entries []Entry) *JSONReport {
	return &JSONReport{
		Version:           w.version,
		ThreatTagsVersion: model.ThreatTagsVersion,
		Result:            res,
		Results:           entries,
	}
}
