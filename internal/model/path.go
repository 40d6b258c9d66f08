package model

import (
	"encoding/json"
	"slices"
	"strings"
)

// NormalizePath strips leading "/" and trailing carriage returns from a
// raw Disallow value. The result may be empty; callers drop empty paths.
func NormalizePath(raw string) string {
	return strings.TrimRight(strings.TrimLeft(raw, "/"), "\r")
}

// PathSet is a deduplicated set of normalized paths.
//
// A PathSet is built by the robots parser and then frozen. Once frozen it is
// read-only, so it can be shared by reference between concurrent probes and
// verifier requests without locking.
type PathSet struct {
	paths  map[string]struct{}
	frozen bool
}

// NewPathSet returns an empty, mutable PathSet.
func NewPathSet() *PathSet {
	return &PathSet{paths: make(map[string]struct{})}
}

// PathSetOf builds a frozen PathSet from the given paths.
// Paths are normalized and empty entries are dropped.
func PathSetOf(paths ...string) *PathSet {
	ps := NewPathSet()
	for _, p := range paths {
		ps.Add(p)
	}
	ps.Freeze()
	return ps
}

// Add normalizes path and inserts it. It reports whether the set changed.
// Empty paths are never inserted. Adding to a frozen set panics, since that
// is always a programming error.
func (ps *PathSet) Add(path string) bool {
	if ps.frozen {
		panic("model: Add called on frozen PathSet")
	}
	path = NormalizePath(path)
	if path == "" {
		return false
	}
	if _, ok := ps.paths[path]; ok {
		return false
	}
	ps.paths[path] = struct{}{}
	return true
}

// Freeze makes the set read-only.
func (ps *PathSet) Freeze() {
	ps.frozen = true
}

// Contains reports whether path (after normalization) is in the set.
func (ps *PathSet) Contains(path string) bool {
	if ps == nil {
		return false
	}
	_, ok := ps.paths[NormalizePath(path)]
	return ok
}

// Len returns the number of paths in the set.
func (ps *PathSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.paths)
}

// Paths returns the paths in lexical order. The order carries no meaning;
// sorting only makes output and tests stable.
func (ps *PathSet) Paths() []string {
	if ps == nil {
		return nil
	}
	out := make([]string, 0, len(ps.paths))
	for p := range ps.paths {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// MarshalJSON encodes the set as a sorted JSON array.
func (ps *PathSet) MarshalJSON() ([]byte, error) {
	paths := ps.Paths()
	if paths == nil {
		paths = []string{}
	}
	return json.Marshal(paths)
}
