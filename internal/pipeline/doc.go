// Package pipeline sequences the stages of an audit.
//
// An audit of one host runs the steps
//
//	fetch_robots -> parse_paths -> probe_paths -> [verify_<engine> ...] -> report
//
// strictly in order: the PathSet is frozen by parse_paths before any probe
// starts, and every verify step reads the same frozen set. Each step moves
// the report's State forward. A robots.txt failure stops the pipeline in the
// FailedRobotsFetch state; a failing verifier is recorded and the next one
// still runs.
//
// BatchProcessor audits several hosts concurrently, one pipeline per host,
// with errgroup bounding how many run at once.
package pipeline
