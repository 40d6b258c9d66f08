package model

import "slices"

// VerifierResult is the verdict of one external engine for one path.
type VerifierResult struct {
	// Path is the normalized path that was looked up.
	Path string `json:"path"`

	// QueryURL is the engine URL that was requested.
	QueryURL string `json:"query_url"`

	// Found is true when the engine's predicate matched the response body.
	Found bool `json:"found"`

	// IndexedURLs lists URLs the engine reported for the path, when the
	// engine knows how to extract them.
	IndexedURLs []string `json:"indexed_urls,omitempty"`

	// Err is the transport error for a failed lookup.
	Err error `json:"-"`

	// ErrorMessage is the string form of Err for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// Failed reports whether the lookup could not be completed.
func (r VerifierResult) Failed() bool {
	return r.Err != nil
}

// VerifierSummary aggregates the results of one engine over a PathSet.
type VerifierSummary struct {
	// Engine is the engine name (e.g., "archive").
	Engine string `json:"engine"`

	// Service is the host the engine queries (e.g., "web.archive.org").
	Service string `json:"service,omitempty"`

	// Verb describes a hit in console output (e.g., "archived").
	Verb string `json:"verb,omitempty"`

	// Checked is the number of paths looked up, failures included.
	Checked int `json:"checked"`

	// Found is the number of paths the engine reported as found.
	Found int `json:"found"`

	// Failed is the number of lookups that produced no usable response.
	Failed int `json:"failed"`

	// Results holds the per-path results in arrival order.
	Results []VerifierResult `json:"results,omitempty"`

	// Err is set when the whole engine stage could not run.
	Err error `json:"-"`

	// ErrorMessage is the string form of Err for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewVerifierSummary returns an empty summary for the named engine.
func NewVerifierSummary(engine string) VerifierSummary {
	return VerifierSummary{
		Engine:  engine,
		Results: make([]VerifierResult, 0),
	}
}

// Record folds one result into the summary.
func (s *VerifierSummary) Record(r VerifierResult) {
	s.Checked++
	switch {
	case r.Failed():
		s.Failed++
	case r.Found:
		s.Found++
	}
	s.Results = append(s.Results, r)
}

// FoundPaths returns the sorted paths the engine reported as found.
func (s VerifierSummary) FoundPaths() []string {
	var paths []string
	for _, r := range s.Results {
		if r.Found && !r.Failed() {
			paths = append(paths, r.Path)
		}
	}
	slices.Sort(paths)
	return paths
}
