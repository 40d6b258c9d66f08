package report

import (
	"io"
	"slices"
	"strings"

	"github.com/nao1215/domo/internal/model"
)

// Writer outputs the reports of a run as one document.
// Implementations write audit results in various formats.
type Writer interface {
	// WriteAll returns the number of bytes written and any error
	// encountered. Nil reports are skipped.
	WriteAll(reports []*model.AuditReport) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// sortedOutcomes returns a copy of the report outcomes ordered by path.
func sortedOutcomes(report *model.AuditReport) []model.ProbeOutcome {
	out := slices.Clone(report.Outcomes)
	slices.SortFunc(out, func(a, b model.ProbeOutcome) int {
		return strings.Compare(a.Path, b.Path)
	})
	return out
}

// sortedResults returns a copy of the verifier results ordered by path.
func sortedResults(summary model.VerifierSummary) []model.VerifierResult {
	out := slices.Clone(summary.Results)
	slices.SortFunc(out, func(a, b model.VerifierResult) int {
		return strings.Compare(a.Path, b.Path)
	})
	return out
}

// nonNil drops the nil entries a cancelled batch leaves behind.
func nonNil(reports []*model.AuditReport) []*model.AuditReport {
	out := make([]*model.AuditReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// statusText summarizes how an audit ended.
func statusText(report *model.AuditReport) string {
	switch {
	case report.TimedOut:
		return "Interrupted (partial results)"
	case report.ErrorMessage != "":
		return "Error - " + report.ErrorMessage
	case report.Succeeded():
		return "Complete"
	default:
		return report.State.String()
	}
}
