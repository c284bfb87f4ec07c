package urlpath_test

import (
	"testing"

	"github.com/xraph/routeguard/urlpath"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/", ""},
		{"//", ""},
		{"///", ""},
		{"employees", "employees"},
		{"/employees", "employees"},
		{"employees/", "employees"},
		{"/employees/", "employees"},
		{"/employees//42/edit/", "employees/42/edit"},
		{"//a///b//", "a/b"},
		{"/a b/c", "a b/c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := urlpath.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", "/", "a", "/a//b/", "///x/y/z///", "employees/<int:id>/edit/"}
	for _, in := range inputs {
		once := urlpath.Normalize(in)
		if twice := urlpath.Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestDisplayAndSegments(t *testing.T) {
	if got := urlpath.Display(""); got != "/" {
		t.Errorf("Display(root) = %q", got)
	}
	if got := urlpath.Display("a/b"); got != "/a/b" {
		t.Errorf("Display = %q", got)
	}
	if segs := urlpath.Segments(""); segs != nil {
		t.Errorf("Segments(root) = %v", segs)
	}
	if segs := urlpath.Segments("api/v1/users"); len(segs) != 3 || segs[2] != "users" {
		t.Errorf("Segments = %v", segs)
	}
}

func TestStripQuery(t *testing.T) {
	tests := map[string]string{
		"/a/b?x=1":    "/a/b",
		"/a/b#frag":   "/a/b",
		"/a/b":        "/a/b",
		"?only=query": "",
	}
	for in, want := range tests {
		if got := urlpath.StripQuery(in); got != want {
			t.Errorf("StripQuery(%q) = %q, want %q", in, got, want)
		}
	}
}
