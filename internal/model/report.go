package model

import (
	"slices"
	"time"
)

// AuditReport is the result of auditing one target host.
// It is created fresh for every run and populated by the pipeline steps in
// order; nothing in it outlives the process.
type AuditReport struct {
	// Host is the audited host, without scheme (e.g., "example.com").
	Host string `json:"host"`

	// StartedAt is when the audit began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the audit reached a terminal state.
	FinishedAt time.Time `json:"finished_at"`

	// State is the last state the audit reached.
	State State `json:"state"`

	// RobotsURL is the URL the policy file was requested from.
	RobotsURL string `json:"robots_url,omitempty"`

	// RobotsStatus is the HTTP status of the policy fetch (0 if it failed).
	RobotsStatus int `json:"robots_status,omitempty"`

	// RobotsBody is the decoded policy text.
	RobotsBody string `json:"-"`

	// Paths is the frozen set of disallowed paths.
	Paths *PathSet `json:"paths,omitempty"`

	// SkippedPatterns lists wildcard directives that could not be compiled.
	SkippedPatterns []string `json:"skipped_patterns,omitempty"`

	// Probe holds the aggregate probe counts.
	Probe ProbeSummary `json:"probe"`

	// Outcomes holds the per-path probe outcomes in arrival order.
	Outcomes []ProbeOutcome `json:"outcomes,omitempty"`

	// Verifications holds one summary per verifier engine that ran.
	Verifications []VerifierSummary `json:"verifications,omitempty"`

	// PerformedSteps lists the pipeline steps that were executed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut is true if the audit was cancelled before finishing.
	TimedOut bool `json:"timed_out"`

	// Error is the fatal error that stopped the audit, if any.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewAuditReport creates a report for the given host in the Start state.
func NewAuditReport(host string) *AuditReport {
	return &AuditReport{
		Host:      host,
		StartedAt: time.Now(),
		State:     StateStart,
		Outcomes:  make([]ProbeOutcome, 0),
	}
}

// SetError records a fatal error on the report.
func (r *AuditReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// AddVerification appends an engine summary.
func (r *AuditReport) AddVerification(s VerifierSummary) {
	if s.Err != nil {
		s.ErrorMessage = s.Err.Error()
	}
	r.Verifications = append(r.Verifications, s)
}

// AvailableOutcomes returns the outcomes that answered 200 OK, sorted by path.
func (r *AuditReport) AvailableOutcomes() []ProbeOutcome {
	var out []ProbeOutcome
	for _, o := range r.Outcomes {
		if o.Available() {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b ProbeOutcome) int {
		if a.Path < b.Path {
			return -1
		}
		if a.Path > b.Path {
			return 1
		}
		return 0
	})
	return out
}

// Elapsed returns how long the audit took.
// If the audit has not finished, it returns the time since it started.
func (r *AuditReport) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the audit reached the Success state.
func (r *AuditReport) Succeeded() bool {
	return r.State == StateSuccess
}
