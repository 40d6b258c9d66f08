// Package robots fetches and parses robots.txt exclusion policies.
//
// The parser is deliberately narrow: only lines beginning with "Disallow"
// whose value follows the exact separator ": /" contribute paths. Values
// containing '*' are treated as wildcard patterns and expanded against the
// target host string. A second, agent-aware reading of the same policy is
// provided by Policy, which wraps github.com/temoto/robotstxt and is used to
// annotate probe outcomes with whether the "*" group really disallows a path.
package robots
