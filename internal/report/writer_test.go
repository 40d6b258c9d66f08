package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/domo/internal/model"
	"github.com/nao1215/domo/internal/robots"
	"github.com/nao1215/domo/internal/verify"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
)

// createTestReport creates a finished audit with one available path, one
// forbidden path and one archive hit.
func createTestReport() *model.AuditReport {
	report := model.NewAuditReport("example.com")
	report.RobotsURL = robots.URLFor("example.com")
	report.RobotsStatus = 200
	report.Paths = model.PathSetOf("admin", "secret")
	report.Outcomes = []model.ProbeOutcome{
		model.NewProbeOutcome("secret", "http://example.com/secret", 403),
		model.NewProbeOutcome("admin", "http://example.com/admin", 200),
	}
	report.Outcomes[1].EffectiveForAll = true
	report.Probe = summarize(report.Outcomes)

	summary := model.NewVerifierSummary(verify.EngineArchive)
	summary.Service = "web.archive.org"
	summary.Verb = "archived"
	summary.Record(model.VerifierResult{Path: "admin", QueryURL: "https://web.archive.org/web/*/example.com/admin", Found: true})
	summary.Record(model.VerifierResult{Path: "secret", QueryURL: "https://web.archive.org/web/*/example.com/secret"})
	report.AddVerification(summary)

	report.State = model.StateSuccess
	report.FinishedAt = report.StartedAt.Add(1500 * time.Millisecond)
	return report
}

func TestConsoleWriterOutcomes(t *testing.T) {
	t.Parallel()

	t.Run("colors lines by status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewConsoleWriter(&buf, WithColor(true))

		w.OnOutcome(model.NewProbeOutcome("admin", "http://example.com/admin", 200))
		w.OnOutcome(model.NewProbeOutcome("secret", "http://example.com/secret", 403))

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) < 2 {
			t.Fatalf("expected two lines, got %q", buf.String())
		}
		if !strings.HasPrefix(lines[0], ansiGreen) || !strings.Contains(lines[0], "http://example.com/admin 200 OK") {
			t.Errorf("admin line = %q", lines[0])
		}
		if !strings.Contains(buf.String(), ansiRed+"http://example.com/secret 403 Forbidden") {
			t.Errorf("secret line missing in %q", buf.String())
		}
	})

	t.Run("plain output without color", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewConsoleWriter(&buf, WithColor(false))

		w.OnOutcome(model.NewProbeOutcome("admin", "http://example.com/admin", 200))
		w.OnOutcome(model.NewFailedOutcome("gone", "http://example.com/gone", errors.New("connection refused")))

		want := "http://example.com/admin 200 OK\nhttp://example.com/gone 0 connection refused\n"
		if buf.String() != want {
			t.Errorf("got %q, want %q", buf.String(), want)
		}
	})
}

func TestConsoleWriterProbeSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary model.ProbeSummary
		want    string
	}{
		{
			name:    "some available",
			summary: model.ProbeSummary{Total: 2, Available: 1},
			want:    " -- 2 links have been analyzed and 1 of them are available.",
		},
		{
			name:    "none available",
			summary: model.ProbeSummary{Total: 3},
			want:    " !! 3 links have been analyzed, none are available.",
		},
		{
			name:    "failures reported",
			summary: model.ProbeSummary{Total: 3, Available: 1, Failed: 2},
			want:    " !! 2 requests failed without a response.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w := NewConsoleWriter(&buf, WithColor(false))
			report := model.NewAuditReport("example.com")
			report.Probe = tt.summary

			w.OnProbeFinished(report)

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestConsoleWriterVerification(t *testing.T) {
	t.Parallel()

	t.Run("found paths", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewConsoleWriter(&buf, WithColor(false))
		engine := verify.Search()

		w.OnVerifyStarted(engine)
		w.OnResult(engine, model.VerifierResult{
			Path:        "admin",
			Found:       true,
			IndexedURLs: []string{"example.com/admin/login"},
		})
		w.OnResult(engine, model.VerifierResult{Path: "secret"})
		summary := model.VerifierSummary{Engine: engine.Name, Checked: 2, Found: 1}
		w.OnVerifyFinished(engine, summary)

		out := buf.String()
		for _, want := range []string{
			"Searching the Disallow entries on Bing...",
			" - admin found on Bing",
			"   example.com/admin/login",
			" -- 1 of 2 Disallows have been indexed on Bing.",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output %q does not contain %q", out, want)
			}
		}
		if strings.Contains(out, "secret") {
			t.Errorf("unexpected line for secret in %q", out)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewConsoleWriter(&buf, WithColor(false))
		engine := verify.ArchiveToday()

		w.OnVerifyFinished(engine, model.VerifierSummary{Engine: engine.Name, Checked: 2, Failed: 1})

		out := buf.String()
		if !strings.Contains(out, " !! No Disallows have been archived on archive.is") {
			t.Errorf("missing none-found line in %q", out)
		}
		if !strings.Contains(out, " !! 1 ") || !strings.Contains(out, "lookups failed.") {
			t.Errorf("missing failure line in %q", out)
		}
	})
}

func TestConsoleWriterFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		want     string
		wantHint bool
	}{
		{
			name: "policy absent",
			err:  &robots.StatusError{StatusCode: 404, Err: robots.ErrPolicyAbsent},
			want: "No robots.txt file has been found.",
		},
		{
			name:     "unreachable",
			err:      fmt.Errorf("%w: dial tcp: no such host", robots.ErrRobotsUnreachable),
			want:     "Please, type a valid URL. This URL can't be resolved.",
			wantHint: true,
		},
		{
			name: "other",
			err:  errors.New("something else"),
			want: "something else",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			NewConsoleWriter(&buf, WithColor(false)).Failure(tt.err)

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
			if got := strings.Contains(buf.String(), UsageHint); got != tt.wantHint {
				t.Errorf("hint present = %v, want %v", got, tt.wantHint)
			}
		})
	}
}

func TestConsoleWriterWrite(t *testing.T) {
	t.Parallel()

	t.Run("finished audit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewConsoleWriter(&buf, WithColor(false)).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		out := buf.String()
		adminAt := strings.Index(out, "http://example.com/admin 200 OK")
		secretAt := strings.Index(out, "http://example.com/secret 403 Forbidden")
		if adminAt < 0 || secretAt < 0 || adminAt > secretAt {
			t.Errorf("outcomes missing or unsorted in %q", out)
		}
		for _, want := range []string{
			"[*] example.com",
			"Searching the Disallow entries on web.archive.org...",
			" - admin found on web.archive.org",
			"1 of 2 Disallows have been archived on web.archive.org.",
			"Finished in 1.5s",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output does not contain %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "interrupted") {
			t.Errorf("finished audit reported as interrupted:\n%s", out)
		}
	})

	t.Run("matches streamed wording", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		engine := verify.Archive()

		var streamed bytes.Buffer
		live := NewConsoleWriter(&streamed, WithColor(false))
		live.OnVerifyFinished(engine, report.Verifications[0])

		var replayed bytes.Buffer
		if _, err := NewConsoleWriter(&replayed, WithColor(false)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(replayed.String(), streamed.String()) {
			t.Errorf("replay %q does not contain streamed summary %q", replayed.String(), streamed.String())
		}
	})

	t.Run("engine without service falls back to its name", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Verifications[0].Service = ""
		report.Verifications[0].Verb = ""

		var buf bytes.Buffer
		if _, err := NewConsoleWriter(&buf, WithColor(false)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "1 of 2 Disallows have been found on archive.") {
			t.Errorf("unexpected engine summary in %q", buf.String())
		}
	})

	t.Run("only successful outcomes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewConsoleWriter(&buf, WithColor(false), WithConsoleOnlySuccessful(true))
		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "/secret 403") {
			t.Errorf("unexpected 403 line in %q", buf.String())
		}
		if !strings.Contains(buf.String(), "2 links have been analyzed and 1 of them are available.") {
			t.Errorf("counts must not be filtered: %q", buf.String())
		}
	})

	t.Run("failed audit", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("example.com")
		report.State = model.StateFailedRobotsFetch
		report.SetError(&robots.StatusError{StatusCode: 404, Err: robots.ErrPolicyAbsent})

		var buf bytes.Buffer
		if _, err := NewConsoleWriter(&buf, WithColor(false)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No robots.txt file has been found.") {
			t.Errorf("missing diagnostic in %q", buf.String())
		}
		if strings.Contains(buf.String(), "links have been analyzed") {
			t.Errorf("unexpected summary in %q", buf.String())
		}
	})

	t.Run("interrupted audit", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.State = model.StateVerify
		report.TimedOut = true

		var buf bytes.Buffer
		if _, err := NewConsoleWriter(&buf, WithColor(false)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "audit of example.com was interrupted; results are partial") {
			t.Errorf("missing interruption notice in %q", buf.String())
		}
	})
}

func TestConsoleWriterFinish(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		state   model.State
		message string
		want    string
		notWant string
	}{
		{name: "success", state: model.StateSuccess, notWant: "interrupted"},
		{name: "stopped in a stage with an error", state: model.StateVerify, message: "stage broke", want: "stage broke"},
		{name: "stopped without an error", state: model.StateParsePaths, want: "was interrupted"},
		{name: "decoded fetch failure", state: model.StateFailedRobotsFetch, message: "robots.txt is unreachable", want: "robots.txt is unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			report := model.NewAuditReport("example.com")
			report.State = tt.state
			report.ErrorMessage = tt.message
			report.FinishedAt = report.StartedAt.Add(time.Second)

			var buf bytes.Buffer
			NewConsoleWriter(&buf, WithColor(false)).Finish(report)

			out := buf.String()
			if !strings.Contains(out, "Finished in 1s") {
				t.Errorf("missing elapsed time in %q", out)
			}
			if tt.want != "" && !strings.Contains(out, tt.want) {
				t.Errorf("output %q does not contain %q", out, tt.want)
			}
			if tt.notWant != "" && strings.Contains(out, tt.notWant) {
				t.Errorf("output %q contains %q", out, tt.notWant)
			}
		})
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithVersion("1.2.3"))

		if _, err := w.WriteAll([]*model.AuditReport{createTestReport()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var doc struct {
			Version string `json:"version"`
			Reports []struct {
				Host     string   `json:"host"`
				State    string   `json:"state"`
				Paths    []string `json:"paths"`
				Probe    model.ProbeSummary
				Outcomes []model.ProbeOutcome `json:"outcomes"`
			} `json:"reports"`
		}
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc.Version != "1.2.3" || len(doc.Reports) != 1 {
			t.Fatalf("unexpected document: %+v", doc)
		}
		r := doc.Reports[0]
		if r.Host != "example.com" || r.State != "Success" {
			t.Errorf("host/state = %q/%q", r.Host, r.State)
		}
		if strings.Join(r.Paths, ",") != "admin,secret" {
			t.Errorf("paths = %v", r.Paths)
		}
		if r.Probe.Total != 2 || r.Probe.Available != 1 {
			t.Errorf("probe = %+v", r.Probe)
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())
		if _, err := w.WriteAll([]*model.AuditReport{createTestReport(), nil}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"reports\"") {
			t.Errorf("expected indented output, got %q", buf.String())
		}
		if !strings.HasSuffix(buf.String(), "}\n") {
			t.Error("expected trailing newline")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes audit sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteAll([]*model.AuditReport{createTestReport()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# robots.txt Audit Report",
			"## example.com",
			"### Publicly Available Paths",
			"- `http://example.com/admin`",
			"### Probed Paths",
			"`/admin`",
			"Response Status Distribution",
			"### Engine: archive",
			"https://web.archive.org/web/*/example.com/admin",
			"[domo](https://github.com/nao1215/domo)",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output does not contain %q", want)
			}
		}
		if strings.Contains(out, "https://web.archive.org/web/*/example.com/secret") {
			t.Error("unarchived path listed in the engine table")
		}
		if strings.Contains(out, "- `http://example.com/secret`") {
			t.Error("forbidden path listed as available")
		}
	})

	t.Run("failed audit stops after overview", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("down.example")
		report.State = model.StateFailedRobotsFetch
		report.SetError(errors.New("robots.txt is unreachable"))

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteAll([]*model.AuditReport{report}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "robots.txt is unreachable") {
			t.Error("expected error message in output")
		}
		if strings.Contains(buf.String(), "Probed Paths") {
			t.Error("unexpected probe section")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}

	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

// summarize folds outcomes the way the prober's aggregate does.
func summarize(outcomes []model.ProbeOutcome) model.ProbeSummary {
	var s model.ProbeSummary
	for _, o := range outcomes {
		s.Record(o)
	}
	return s
}
