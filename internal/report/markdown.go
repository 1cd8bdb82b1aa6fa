package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for tickets and chat.
// It uses GitHub-flavored alerts for the verdict and mermaid charts for batches.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one result in Markdown format.
func (w *MarkdownWriter) Write(res *model.AggregateResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, res)
	w.writeVerdict(md, res)
	w.writeThreats(md, res)
	w.writeSignals(md, res)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs a summary table of the batch.
func (w *MarkdownWriter) WriteBatch(entries []Entry) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("PhishScan Batch Report")
	md.PlainText("")

	rows := make([][]string, len(entries))
	for i, e := range entries {
		if e.Result == nil {
			rows[i] = []string{strconv.Itoa(i + 1), "`" + truncateString(e.URL, 60) + "`", "-", "error", truncateString(e.Error, 60)}
			continue
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			"`" + truncateString(e.Result.URL, 60) + "`",
			formatScore(e.Result.FinalScore),
			string(e.Result.SafetyLevel),
			orDash(joinThreats(e.Result.Threats)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "URL", "Score", "Safety", "Threats"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(entries) > 0 {
		w.writePieChart(md, countBatch(entries))
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs stored scans as a table.
func (w *MarkdownWriter) WriteHistory(records []database.ScanRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Scan History")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No scans recorded.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(records))
		for i, r := range records {
			rows[i] = []string{
				r.ScannedAt.Format("2006-01-02 15:04:05 MST"),
				"`" + truncateString(r.URL, 60) + "`",
				formatScore(r.Score),
				string(r.SafetyLevel),
				orDash(joinThreats(r.Threats)),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Scanned", "URL", "Score", "Safety", "Threats"},
			Rows:   rows,
		})
		md.PlainText("")
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, res *model.AggregateResult) {
	md.H1("PhishScan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + res.URL + "`"},
			{"Score", formatScore(res.FinalScore) + " / 100"},
			{"Safety", string(res.SafetyLevel)},
			{"State", res.State.String()},
			{"Signals Used", joinSignals(res.SignalsUsed)},
			{"Scan Date", res.ScannedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")
}

// writeVerdict writes an alert matching the safety level.
func (w *MarkdownWriter) writeVerdict(md *markdown.Markdown, res *model.AggregateResult) {
	switch {
	case res.Vetoed:
		md.Cautionf("This URL is on a phishing blacklist. Do not visit it.")
	case res.SafetyLevel == model.SafetyLow:
		md.Warningf("Low safety score (%s). %d threat(s) detected.", formatScore(res.FinalScore), len(res.Threats))
	case res.SafetyLevel == model.SafetyMedium:
		md.Importantf("Medium safety score (%s). Verify the link before entering credentials.", formatScore(res.FinalScore))
	default:
		md.Tip("No significant phishing indicators detected.")
	}
	if res.State == model.StateDegraded {
		md.Note("Some signals were unavailable; the score is based on the remaining signals.")
	}
	md.PlainText("")
}

// writeThreats writes a table of threats, most severe first.
func (w *MarkdownWriter) writeThreats(md *markdown.Markdown, res *model.AggregateResult) {
	md.H2("Threats")
	md.PlainText("")

	if len(res.Threats) == 0 {
		md.PlainText("No threats detected.")
		md.PlainText("")
		return
	}

	var rows [][]string
	for _, severity := range severitiesDescending {
		for _, tag := range threatsWithSeverity(res.Threats, severity) {
			info := model.GetThreatInfo(tag)
			rows = append(rows, []string{
				severityLabel(severity),
				"`" + string(tag) + "`",
				truncateString(info.Description, 80),
				truncateString(info.Recommendation, 80),
			})
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Threat", "Description", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSignals writes the per-signal outcome table.
func (w *MarkdownWriter) writeSignals(md *markdown.Markdown, res *model.AggregateResult) {
	if len(res.Signals) == 0 {
		return
	}

	md.H2("Signals")
	md.PlainText("")

	rows := make([][]string, len(res.Signals))
	for i, o := range res.Signals {
		score := "-"
		if o.Score != nil {
			score = formatScore(*o.Score)
		}
		rows[i] = []string{
			string(o.Signal),
			o.Status.String(),
			score,
			strconv.FormatInt(o.DurationMS, 10) + " ms",
			orDash(o.Reason),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Signal", "Status", "Score", "Duration", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the batch safety distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, c batchCounts) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Safety Distribution"),
		piechart.WithShowData(true),
	)

	if c.high > 0 {
		chart.LabelAndIntValue("High", uint64(c.high))
	}
	if c.medium > 0 {
		chart.LabelAndIntValue("Medium", uint64(c.medium))
	}
	if c.low > 0 {
		chart.LabelAndIntValue("Low", uint64(c.low))
	}
	if c.failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(c.failed))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [phishscan](https://github.com/nao1215/phishscan)*")
}

func severityLabel(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "🔴 Critical"
	case model.SeverityHigh:
		return "🟠 High"
	case model.SeverityMedium:
		return "🟡 Medium"
	case model.SeverityLow:
		return "🔵 Low"
	default:
		return "⚪ Info"
	}
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
