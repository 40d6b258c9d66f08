package model

import "net/http"

// ProbeOutcome is the result of requesting one disallowed path.
type ProbeOutcome struct {
	// Path is the normalized path that was probed.
	Path string `json:"path"`

	// URL is the full URL that was requested.
	URL string `json:"url"`

	// StatusCode is the HTTP status code, or 0 when the request failed.
	StatusCode int `json:"status_code"`

	// Reason is the canonical reason phrase for StatusCode.
	Reason string `json:"reason,omitempty"`

	// Err is the transport error for a failed request.
	Err error `json:"-"`

	// ErrorMessage is the string form of Err for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional

	// EffectiveForAll is true when the "*" agent group of the policy
	// actually disallows this path. It is informational only.
	EffectiveForAll bool `json:"effective_for_all"`
}

// NewProbeOutcome builds an outcome for a completed response.
func NewProbeOutcome(path, url string, status int) ProbeOutcome {
	return ProbeOutcome{
		Path:       path,
		URL:        url,
		StatusCode: status,
		Reason:     ReasonPhrase(status),
	}
}

// NewFailedOutcome builds an outcome for a request that never got a response.
func NewFailedOutcome(path, url string, err error) ProbeOutcome {
	o := ProbeOutcome{
		Path: path,
		URL:  url,
		Err:  err,
	}
	if err != nil {
		o.ErrorMessage = err.Error()
	}
	return o
}

// Available reports whether the path answered with 200 OK.
func (o ProbeOutcome) Available() bool {
	return o.StatusCode == http.StatusOK
}

// Failed reports whether the request produced no response at all.
func (o ProbeOutcome) Failed() bool {
	return o.StatusCode == 0
}

// ReasonPhrase returns the canonical reason phrase for a status code,
// or "Unknown" when net/http has no text for it.
func ReasonPhrase(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Unknown"
}

// ProbeSummary holds the aggregate counts of a probe run.
// It is always derivable by folding the outcomes through Record.
type ProbeSummary struct {
	// Total is the number of paths probed, failed requests included.
	Total int `json:"total"`

	// Available is the number of paths that answered 200 OK.
	Available int `json:"available"`

	// Failed is the number of paths whose request produced no response.
	Failed int `json:"failed"`
}

// Record folds one outcome into the summary.
func (s *ProbeSummary) Record(o ProbeOutcome) {
	s.Total++
	if o.Available() {
		s.Available++
	}
	if o.Failed() {
		s.Failed++
	}
}
