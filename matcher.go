package routeguard

import (
	"github.com/xraph/routeguard/pattern"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/urlpath"
)

// matchPermission tests a stored permission against a canonical request
// path and returns the captured placeholder values on a match.
//
// A stored pattern that does not compile never matches, not even by exact
// text, and is reported through err.
func matchPermission(patterns *pattern.Cache, p *permission.Permission, path string) (map[string]string, bool, error) {
	compiled, err := patterns.Get(p.Pattern)
	if err != nil {
		return nil, false, err
	}

	// Exact equality of the canonical forms. Normalizing the stored side
	// also accepts records written with leading or trailing slashes.
	if urlpath.Normalize(p.Pattern) == path {
		return nil, true, nil
	}

	if compiled.IsLiteral() {
		return nil, false, nil
	}
	params, ok := compiled.Extract(path)
	if !ok {
		return nil, false, nil
	}
	return params, true, nil
}
