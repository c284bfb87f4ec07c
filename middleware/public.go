package middleware

import (
	"fmt"

	"github.com/xraph/routeguard/pattern"
	"github.com/xraph/routeguard/urlpath"
)

// PublicPaths is the allow-list of paths served without a principal. Entries
// use the same placeholder grammar as permission patterns.
type PublicPaths struct {
	patterns []*pattern.Pattern
}

// NewPublicPaths compiles the given patterns. Any pattern that does not
// compile is an error.
func NewPublicPaths(raw ...string) (*PublicPaths, error) {
	pp := &PublicPaths{patterns: make([]*pattern.Pattern, 0, len(raw))}
	for _, r := range raw {
		p, err := pattern.Compile(r)
		if err != nil {
			return nil, fmt.Errorf("public path %q: %w", r, err)
		}
		pp.patterns = append(pp.patterns, p)
	}
	return pp, nil
}

// MustPublicPaths is like NewPublicPaths but panics on error.
func MustPublicPaths(raw ...string) *PublicPaths {
	pp, err := NewPublicPaths(raw...)
	if err != nil {
		panic(err)
	}
	return pp
}

// Match reports whether the decoded path is public. A nil list matches
// nothing.
func (pp *PublicPaths) Match(rawPath string) bool {
	if pp == nil {
		return false
	}
	path := urlpath.Normalize(rawPath)
	for _, p := range pp.patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// Patterns returns the canonical form of every entry.
func (pp *PublicPaths) Patterns() []string {
	if pp == nil {
		return nil
	}
	out := make([]string, len(pp.patterns))
	for i, p := range pp.patterns {
		out[i] = p.String()
	}
	return out
}
