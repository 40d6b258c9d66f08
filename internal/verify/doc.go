// Package verify checks whether disallowed paths are known to external
// services such as search engines and web archives.
//
// An Engine is plain data: a query URL template and a predicate over the
// response body, plus an optional extractor for indexed URLs. Every engine
// runs through the same Verifier, which reuses the bounded fan-out of the
// prober. The two built-in predicates are intentionally opposite: the
// search engine counts a path as found when the "no results" marker is
// absent, the archives when their positive marker is present.
package verify
