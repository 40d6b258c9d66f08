package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/nao1215/domo/internal/model"
	"github.com/nao1215/domo/internal/robots"
	"github.com/nao1215/domo/internal/verify"
)

// UsageHint is printed after a fatal robots.txt failure.
const UsageHint = "e.g: domo audit www.example.com --only-success --archive"

// ConsoleWriter prints audit progress as it happens: one colored line per
// probe outcome, the probe summary, and the findings of each engine.
// It implements the pipeline observer for a single streamed audit; Write
// prints a finished audit at once.
type ConsoleWriter struct {
	baseWriter

	onlySuccessful bool

	ok    *color.Color
	fail  *color.Color
	warn  *color.Color
	title *color.Color
}

// ConsoleWriterOption configures a ConsoleWriter.
type ConsoleWriterOption func(*ConsoleWriter)

// WithColor forces colored output on or off.
func WithColor(enabled bool) ConsoleWriterOption {
	return func(w *ConsoleWriter) {
		for _, c := range []*color.Color{w.ok, w.fail, w.warn, w.title} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// WithConsoleOnlySuccessful makes Write skip outcomes other than 200 OK,
// matching what the prober hands to a streaming observer.
func WithConsoleOnlySuccessful(onlySuccessful bool) ConsoleWriterOption {
	return func(w *ConsoleWriter) {
		w.onlySuccessful = onlySuccessful
	}
}

// NewConsoleWriter creates a ConsoleWriter that outputs to the given
// writer. Color follows fatih/color's terminal detection unless
// WithColor is given.
func NewConsoleWriter(output io.Writer, opts ...ConsoleWriterOption) *ConsoleWriter {
	w := &ConsoleWriter{
		baseWriter: newBaseWriter(output),
		ok:         color.New(color.FgGreen),
		fail:       color.New(color.FgRed),
		warn:       color.New(color.FgYellow),
		title:      color.New(color.Bold),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Header prints the banner that starts the output of one host.
func (w *ConsoleWriter) Header(host string) {
	w.title.Fprintf(w.output, "\n[*] %s\n\n", host)
}

// OnOutcome prints "URL STATUS REASON", green for 200 and red otherwise.
func (w *ConsoleWriter) OnOutcome(o model.ProbeOutcome) {
	switch {
	case o.Failed():
		w.fail.Fprintf(w.output, "%s 0 %s\n", o.URL, o.ErrorMessage)
	case o.Available():
		w.ok.Fprintf(w.output, "%s %d %s\n", o.URL, o.StatusCode, o.Reason)
	default:
		w.fail.Fprintf(w.output, "%s %d %s\n", o.URL, o.StatusCode, o.Reason)
	}
}

// OnProbeFinished prints the probe summary line.
func (w *ConsoleWriter) OnProbeFinished(report *model.AuditReport) {
	s := report.Probe
	if s.Available > 0 {
		fmt.Fprintf(w.output, "\n -- %d links have been analyzed and %d of them are available.\n", s.Total, s.Available)
	} else {
		w.fail.Fprintf(w.output, "\n !! %d links have been analyzed, none are available.\n", s.Total)
	}
	if s.Failed > 0 {
		w.warn.Fprintf(w.output, " !! %d requests failed without a response.\n", s.Failed)
	}
	for _, pattern := range report.SkippedPatterns {
		w.warn.Fprintf(w.output, " !! skipped Disallow pattern %q\n", pattern)
	}
}

// OnVerifyStarted announces an engine.
func (w *ConsoleWriter) OnVerifyStarted(engine verify.Engine) {
	fmt.Fprintf(w.output, "\nSearching the Disallow entries on %s...\n\n", engine.Service)
}

// OnResult prints a line for each path the engine found, followed by the
// indexed URLs it extracted.
func (w *ConsoleWriter) OnResult(engine verify.Engine, result model.VerifierResult) {
	if !result.Found || result.Failed() {
		return
	}
	w.ok.Fprintf(w.output, " - %s found on %s\n", result.Path, engine.Service)
	for _, u := range result.IndexedURLs {
		w.ok.Fprintf(w.output, "   %s\n", u)
	}
}

// OnVerifyFinished prints the engine summary, or the red line stating
// that nothing was found.
func (w *ConsoleWriter) OnVerifyFinished(engine verify.Engine, summary model.VerifierSummary) {
	if summary.Found == 0 {
		w.fail.Fprintf(w.output, "\n !! No Disallows have been %s on %s\n", engine.Verb, engine.Service)
	} else {
		fmt.Fprintf(w.output, "\n -- %d of %d Disallows have been %s on %s.\n",
			summary.Found, summary.Checked, engine.Verb, engine.Service)
	}
	if summary.Failed > 0 {
		w.warn.Fprintf(w.output, " !! %d %s lookups failed.\n", summary.Failed, engine.Title())
	}
	if summary.ErrorMessage != "" {
		w.warn.Fprintf(w.output, " !! %s stopped early: %s\n", engine.Title(), summary.ErrorMessage)
	}
}

// Failure prints the diagnostic for an audit that could not run, followed
// by the usage hint when the host itself is the problem.
func (w *ConsoleWriter) Failure(err error) {
	switch {
	case errors.Is(err, robots.ErrPolicyAbsent):
		w.fail.Fprintln(w.output, "No robots.txt file has been found.")
	case errors.Is(err, robots.ErrRobotsUnreachable):
		w.fail.Fprintln(w.output, "Please, type a valid URL. This URL can't be resolved.")
		w.fail.Fprintln(w.output, UsageHint)
	default:
		w.fail.Fprintln(w.output, err.Error())
	}
	fmt.Fprintln(w.output)
}

// Finished prints the elapsed time.
func (w *ConsoleWriter) Finished(elapsed time.Duration) {
	fmt.Fprintf(w.output, "\nFinished in %s\n", elapsed.Round(10*time.Millisecond))
}

// Finish closes the output of one audit: the diagnostic of an audit that
// failed or never reached a terminal state, then the elapsed time.
func (w *ConsoleWriter) Finish(report *model.AuditReport) {
	switch {
	case report.State == model.StateFailedRobotsFetch:
		w.Failure(reportError(report))
	case !report.State.Terminal():
		err := reportError(report)
		if report.TimedOut || report.ErrorMessage == "" {
			err = fmt.Errorf("audit of %s was interrupted; results are partial", report.Host)
		}
		w.Failure(err)
	}
	w.Finished(report.Elapsed())
}

// Write prints a finished audit in one go, as the streaming events would
// have printed it. Batch mode uses it so that the output of concurrent
// audits is never interleaved.
func (w *ConsoleWriter) Write(report *model.AuditReport) (int, error) {
	cw := &countingWriter{w: w.output}
	inner := *w
	inner.output = cw

	inner.Header(report.Host)
	if report.State != model.StateFailedRobotsFetch {
		for _, o := range sortedOutcomes(report) {
			if w.onlySuccessful && !o.Available() {
				continue
			}
			inner.OnOutcome(o)
		}
		if report.Paths != nil {
			inner.OnProbeFinished(report)
		}
		for _, s := range report.Verifications {
			engine := engineOf(s)
			inner.OnVerifyStarted(engine)
			for _, r := range sortedResults(s) {
				inner.OnResult(engine, r)
			}
			inner.OnVerifyFinished(engine, s)
		}
	}
	inner.Finish(report)

	return cw.n, cw.err
}

// engineOf rebuilds the display fields of the engine that produced s.
func engineOf(s model.VerifierSummary) verify.Engine {
	engine := verify.Engine{Name: s.Engine, Service: s.Service, Verb: s.Verb}
	if engine.Service == "" {
		engine.Service = s.Engine
	}
	if engine.Verb == "" {
		engine.Verb = "found"
	}
	return engine
}

// reportError returns the fatal error of report, rebuilding it from the
// message when the report was decoded from JSON.
func reportError(report *model.AuditReport) error {
	switch {
	case report.Error != nil:
		return report.Error
	case report.ErrorMessage != "":
		return errors.New(report.ErrorMessage)
	default:
		return fmt.Errorf("audit of %s stopped in state %s", report.Host, report.State)
	}
}

// countingWriter records the bytes written and the first error.
type countingWriter struct {
	w   io.Writer
	n   int
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	if err != nil && c.err == nil {
		c.err = err
	}
	return n, err
}
