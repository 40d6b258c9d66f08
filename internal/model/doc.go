// Package model defines the data structures shared by the audit stages.
//
// This package contains the following main types:
//   - PathSet: the frozen set of disallowed paths parsed from robots.txt
//   - ProbeOutcome and ProbeSummary: results of probing each path
//   - VerifierResult and VerifierSummary: results of one external engine
//   - AuditReport: everything collected for one target host
//
// The models live in their own package so that robots, probe, verify,
// pipeline, and report can all use them without import cycles. They are
// serializable to JSON for report output.
package model
