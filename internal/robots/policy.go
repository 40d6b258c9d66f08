package robots

import (
	"strings"

	"github.com/temoto/robotstxt"
)

// allAgents is the user-agent group consulted by Policy.
const allAgents = "*"

// Policy is an agent-aware reading of robots.txt. Unlike Parse it honors
// groups, Allow lines and path prefix matching, which makes it useful for
// telling whether a Disallow line actually binds every crawler.
type Policy struct {
	group *robotstxt.Group
}

// NewPolicy parses raw with github.com/temoto/robotstxt.
// It returns an error only when the text cannot be parsed at all.
func NewPolicy(raw string) (*Policy, error) {
	data, err := robotstxt.FromString(raw)
	if err != nil {
		return nil, err
	}
	return &Policy{group: data.FindGroup(allAgents)}, nil
}

// DisallowedForAll reports whether the "*" group forbids path.
// path may be given with or without its leading slash.
func (p *Policy) DisallowedForAll(path string) bool {
	if p == nil || p.group == nil {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return !p.group.Test(path)
}
