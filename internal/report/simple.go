package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Plain ASCII keeps the output safe to pipe into files and other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to report are shown.
	showEmpty bool

	// verbose adds threat descriptions and recommendations.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one result in human-readable format.
func (w *SimpleWriter) Write(res *model.AggregateResult) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "PHISHSCAN REPORT")
	w.writeHeader(&sb, res)
	w.writeThreats(&sb, res)
	w.writeSignals(&sb, res)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteBatch outputs one line per URL followed by a summary.
func (w *SimpleWriter) WriteBatch(entries []Entry) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "PHISHSCAN BATCH REPORT")
	for i, e := range entries {
		if e.Result == nil {
			fmt.Fprintf(&sb, "[%d] ERROR   %s\n      %s\n", i+1, e.URL, e.Error)
			continue
		}
		fmt.Fprintf(&sb, "[%d] %5.1f  %-6s %s\n", i+1, e.Result.FinalScore, e.Result.SafetyLevel, e.Result.URL)
		if len(e.Result.Threats) > 0 {
			fmt.Fprintf(&sb, "      threats: %s\n", joinThreats(e.Result.Threats))
		}
	}

	c := countBatch(entries)
	w.writeSection(&sb, "SUMMARY")
	fmt.Fprintf(&sb, "  HIGH:     %d\n", c.high)
	fmt.Fprintf(&sb, "  MEDIUM:   %d\n", c.medium)
	fmt.Fprintf(&sb, "  LOW:      %d\n", c.low)
	fmt.Fprintf(&sb, "  FAILED:   %d\n", c.failed)
	fmt.Fprintf(&sb, "\n  TOTAL:    %d urls\n\n", len(entries))
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteHistory outputs stored scans newest first.
func (w *SimpleWriter) WriteHistory(records []database.ScanRecord) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "SCAN HISTORY")
	if len(records) == 0 {
		sb.WriteString("  No scans recorded\n\n")
	}
	for _, r := range records {
		fmt.Fprintf(&sb, "%s  %5.1f  %-6s %s\n",
			r.ScannedAt.Local().Format("2006-01-02 15:04:05"), r.Score, r.SafetyLevel, r.URL)
		if w.verbose && len(r.Threats) > 0 {
			fmt.Fprintf(&sb, "                     threats: %s\n", joinThreats(r.Threats))
		}
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	pad := max((70-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad) + title + "\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the verdict block.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, res *model.AggregateResult) {
	fmt.Fprintf(sb, "URL:          %s\n", res.URL)
	fmt.Fprintf(sb, "Score:        %.1f / 100 (%s safety)\n", res.FinalScore, res.SafetyLevel)
	fmt.Fprintf(sb, "State:        %s\n", res.State)
	fmt.Fprintf(sb, "Signals used: %s\n", joinSignals(res.SignalsUsed))
	fmt.Fprintf(sb, "Scan Date:    %s\n", res.ScannedAt.Format("2006-01-02 15:04:05 MST"))
	if res.Vetoed {
		sb.WriteString("Verdict:      BLACKLISTED (score forced to 0)\n")
	}
	sb.WriteString("\n")
}

// writeThreats writes threats grouped by severity, critical first.
func (w *SimpleWriter) writeThreats(sb *strings.Builder, res *model.AggregateResult) {
	if len(res.Threats) == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, "THREATS")
	if len(res.Threats) == 0 {
		sb.WriteString("  No threats detected\n\n")
		return
	}

	for _, severity := range severitiesDescending {
		tags := threatsWithSeverity(res.Threats, severity)
		if len(tags) == 0 {
			continue
		}

		fmt.Fprintf(sb, "[%s] %s\n", w.getSeverityIndicator(severity), severity)
		for _, tag := range tags {
			info := model.GetThreatInfo(tag)
			fmt.Fprintf(sb, "  * %s\n", tag)
			if w.verbose {
				fmt.Fprintf(sb, "    Description: %s\n", info.Description)
				fmt.Fprintf(sb, "    Recommendation: %s\n", info.Recommendation)
			}
		}
		sb.WriteString("\n")
	}
}

// writeSignals writes the outcome of every intended signal.
func (w *SimpleWriter) writeSignals(sb *strings.Builder, res *model.AggregateResult) {
	if len(res.Signals) == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, "SIGNALS")
	for _, o := range res.Signals {
		score := "-"
		if o.Score != nil {
			score = fmt.Sprintf("%.1f", *o.Score)
		}
		fmt.Fprintf(sb, "  %-11s %-12s %6s  %4dms", o.Signal, o.Status, score, o.DurationMS)
		if o.Reason != "" {
			fmt.Fprintf(sb, "  (%s)", o.Reason)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by phishscan\n")
	sb.WriteString("https://github.com/nao1215/phishscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

var severitiesDescending = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	model.SeverityInfo,
}

func threatsWithSeverity(tags []model.ThreatTag, s model.Severity) []model.ThreatTag {
	var out []model.ThreatTag
	for _, t := range tags {
		if t.Severity() == s {
			out = append(out, t)
		}
	}
	return out
}

func joinThreats(tags []model.ThreatTag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func joinSignals(names []model.SignalName) string {
	if len(names) == 0 {
		return "none"
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
