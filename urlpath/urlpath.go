// Package urlpath reduces request paths and permission patterns to a
// single canonical form so they can be compared directly.
//
// The canonical form has no leading or trailing slash and no runs of
// consecutive slashes. The site root canonicalizes to the empty string.
package urlpath

import "strings"

// Normalize returns the canonical form of p. It never fails.
//
//	Normalize("/employees//42/")  == "employees/42"
//	Normalize("/")                == ""
func Normalize(p string) string {
	if p == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(p))
	prevSlash := true // swallows leading slashes
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
			b.WriteByte(c)
			continue
		}
		prevSlash = false
		b.WriteByte(c)
	}
	return strings.TrimSuffix(b.String(), "/")
}

// Display renders a canonical path for humans and logs.
func Display(canonical string) string {
	return "/" + canonical
}

// Segments splits a canonical path into its non-empty segments.
func Segments(canonical string) []string {
	if canonical == "" {
		return nil
	}
	return strings.Split(canonical, "/")
}

// StripQuery drops a query string or fragment from a raw request target.
func StripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}
