// Package probe requests every disallowed path of a site and classifies
// the responses.
//
// A Prober issues one GET per path under a concurrency ceiling, never
// following redirects, and folds the results into a ProbeSummary guarded
// by a single mutex so that the total and available counts are always
// observed together.
package probe
