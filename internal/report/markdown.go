package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/domo/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format for sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteAll outputs every report as a section of one document.
func (w *MarkdownWriter) WriteAll(reports []*model.AuditReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("robots.txt Audit Report")
	md.PlainText("")

	for _, report := range nonNil(reports) {
		w.writeHost(md, report)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHost writes every section of one audit.
func (w *MarkdownWriter) writeHost(md *markdown.Markdown, report *model.AuditReport) {
	md.H2(report.Host)
	md.PlainText("")

	w.writeOverview(md, report)

	if report.State == model.StateFailedRobotsFetch {
		md.Cautionf("The audit stopped before probing: %s", report.ErrorMessage)
		md.PlainText("")
		return
	}

	w.writeAlert(md, report)
	w.writeAvailable(md, report)
	w.writeOutcomes(md, report)
	w.writeSkipped(md, report)
	w.writeVerifications(md, report)
}

// writeOverview writes the property table of an audit.
func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, report *model.AuditReport) {
	robotsStatus := "-"
	if report.RobotsStatus != 0 {
		robotsStatus = strconv.Itoa(report.RobotsStatus) + " " + model.ReasonPhrase(report.RobotsStatus)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"robots.txt", "`" + report.RobotsURL + "`"},
			{"robots.txt status", robotsStatus},
			{"Audit Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", report.Elapsed().Round(10*time.Millisecond).String()},
			{"Disallowed Paths", strconv.Itoa(report.Paths.Len())},
			{"Probed", strconv.Itoa(report.Probe.Total)},
			{"Available", strconv.Itoa(report.Probe.Available)},
			{"Failed Requests", strconv.Itoa(report.Probe.Failed)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

// writeAlert highlights reachable disallowed paths.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.AuditReport) {
	switch {
	case report.Probe.Available > 0:
		md.Warningf("%d of %d disallowed path(s) answered 200 OK.",
			report.Probe.Available, report.Probe.Total)
	case report.Probe.Total > 0:
		md.Tip("None of the disallowed paths is publicly available.")
	default:
		md.Note("robots.txt declares no Disallow paths.")
	}
	md.PlainText("")
}

// writeAvailable lists the disallowed URLs that answered 200 OK.
func (w *MarkdownWriter) writeAvailable(md *markdown.Markdown, report *model.AuditReport) {
	available := report.AvailableOutcomes()
	if len(available) == 0 {
		return
	}

	md.H3("Publicly Available Paths")
	md.PlainText("")
	items := make([]string, len(available))
	for i, o := range available {
		items[i] = "`" + o.URL + "`"
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeOutcomes writes the probe table and the status distribution.
func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, report *model.AuditReport) {
	outcomes := sortedOutcomes(report)
	if len(outcomes) == 0 {
		return
	}

	md.H3("Probed Paths")
	md.PlainText("")

	rows := make([][]string, len(outcomes))
	for i, o := range outcomes {
		status := strconv.Itoa(o.StatusCode)
		reason := o.Reason
		if o.Failed() {
			status = "-"
			reason = o.ErrorMessage
		}
		rows[i] = []string{
			"`/" + o.Path + "`",
			status,
			truncateString(reason, 60),
			yesNo(o.EffectiveForAll),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Path", "Status", "Reason", "Disallowed for *"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, outcomes)
}

// writePieChart writes a mermaid pie chart of status classes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, outcomes []model.ProbeOutcome) {
	labels := []string{"2xx", "3xx", "4xx", "5xx", "failed"}
	counts := make(map[string]uint64, len(labels))
	for _, o := range outcomes {
		counts[statusClass(o)]++
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Response Status Distribution"),
		piechart.WithShowData(true),
	)
	for _, label := range labels {
		if counts[label] > 0 {
			chart.LabelAndIntValue(label, counts[label])
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeSkipped lists wildcard patterns that could not be expanded.
func (w *MarkdownWriter) writeSkipped(md *markdown.Markdown, report *model.AuditReport) {
	if len(report.SkippedPatterns) == 0 {
		return
	}

	md.H3("Skipped Patterns")
	md.PlainText("")
	items := make([]string, len(report.SkippedPatterns))
	for i, p := range report.SkippedPatterns {
		items[i] = "`" + p + "`"
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeVerifications writes one section per engine.
func (w *MarkdownWriter) writeVerifications(md *markdown.Markdown, report *model.AuditReport) {
	for _, summary := range report.Verifications {
		md.H3("Engine: " + summary.Engine)
		md.PlainText("")
		md.PlainTextf("%d checked, %d found, %d failed.", summary.Checked, summary.Found, summary.Failed)
		md.PlainText("")

		if summary.ErrorMessage != "" {
			md.Warningf("Stopped early: %s", summary.ErrorMessage)
			md.PlainText("")
		}

		paths := summary.FoundPaths()
		if len(paths) == 0 {
			md.PlainText("No disallowed path was found.")
			md.PlainText("")
			continue
		}

		byPath := make(map[string]model.VerifierResult, len(summary.Results))
		for _, r := range summary.Results {
			byPath[r.Path] = r
		}
		rows := make([][]string, len(paths))
		for i, path := range paths {
			r := byPath[path]
			rows[i] = []string{
				"`/" + path + "`",
				truncateString(r.QueryURL, 80),
				truncateString(strings.Join(r.IndexedURLs, ", "), 80),
			}
		}

		md.Table(markdown.TableSet{
			Header: []string{"Path", "Query", "Indexed URLs"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [domo](https://github.com/nao1215/domo)*")
}

// statusClass buckets an outcome for the status chart.
func statusClass(o model.ProbeOutcome) string {
	switch {
	case o.Failed():
		return "failed"
	case o.StatusCode < 300:
		return "2xx"
	case o.StatusCode < 400:
		return "3xx"
	case o.StatusCode < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
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
