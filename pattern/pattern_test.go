package pattern_test

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/xraph/routeguard/pattern"
)

func TestCompileLiteral(t *testing.T) {
	p, err := pattern.Compile("/reports/daily/")
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsLiteral() {
		t.Fatal("expected literal fast path")
	}
	if p.String() != "reports/daily" {
		t.Fatalf("String() = %q", p.String())
	}
	if !p.Match("reports/daily") {
		t.Error("expected exact match")
	}
	if p.Match("reports/daily/x") || p.Match("reports") {
		t.Error("literal must not match other paths")
	}
}

func TestLiteralMetacharactersEscaped(t *testing.T) {
	p := pattern.MustCompile("files/a.b+c/<int:id>")
	if !p.Match("files/a.b+c/7") {
		t.Error("expected match on literal dots and plus")
	}
	if p.Match("files/aXbbc/7") {
		t.Error("regex metacharacters in literal text must be escaped")
	}
}

func TestIntPlaceholder(t *testing.T) {
	p := pattern.MustCompile("employees/<int:id>/edit")
	for n := range 50 {
		path := "employees/" + strconv.Itoa(n*37) + "/edit"
		if !p.Match(path) {
			t.Errorf("expected %q to match", path)
		}
	}
	for _, path := range []string{"employees/abc/edit", "employees//edit", "employees/42", "employees/42/edit/x", "x/employees/42/edit"} {
		if p.Match(path) {
			t.Errorf("expected %q not to match", path)
		}
	}
}

func TestPlaceholderTypes(t *testing.T) {
	id := uuid.NewString()

	tests := []struct {
		tmpl  string
		match []string
		miss  []string
	}{
		{"u/<str:name>", []string{"u/alice", "u/A.b-C"}, []string{"u/a/b", "u/"}},
		{"u/<name>", []string{"u/alice", "u/42"}, []string{"u/a/b"}},
		{"blog/<slug:s>", []string{"blog/hello-world_2"}, []string{"blog/Hello", "blog/a.b"}},
		{"orders/<uuid:o>", []string{"orders/" + id}, []string{"orders/not-a-uuid", "orders/" + upper(id)}},
		{"files/<path:rest>", []string{"files/a", "files/a/b/c.txt"}, []string{"files"}},
		{"v<int:n>/items", []string{"v2/items"}, []string{"vx/items"}},
	}
	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			p := pattern.MustCompile(tt.tmpl)
			for _, s := range tt.match {
				if !p.Match(s) {
					t.Errorf("expected %q to match", s)
				}
			}
			for _, s := range tt.miss {
				if p.Match(s) {
					t.Errorf("expected %q not to match", s)
				}
			}
		})
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		tmpl string
		want error
	}{
		{"reports/<weirdtype:id>/", pattern.ErrUnknownType},
		{"reports/<INT:id>", pattern.ErrUnknownType},
		{"reports/<int:id", pattern.ErrMalformed},
		{"reports/int:id>", pattern.ErrMalformed},
		{"reports/<>", pattern.ErrMalformed},
		{"reports/<int:>", pattern.ErrMalformed},
		{"reports/<:id>", pattern.ErrMalformed},
		{"reports/<a<b>>", pattern.ErrMalformed},
		{"reports/<int:1d>", pattern.ErrMalformed},
		{"<int:id>/<str:id>", pattern.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			p, err := pattern.Compile(tt.tmpl)
			if err == nil {
				t.Fatalf("expected error, got pattern %q", p)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("error %v does not wrap %v", err, tt.want)
			}
			var ce *pattern.CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not a *CompileError", err)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	p := pattern.MustCompile("teams/<slug:team>/members/<int:id>")
	got, ok := p.Extract("teams/core/members/12")
	if !ok {
		t.Fatal("expected match")
	}
	if got["team"] != "core" || got["id"] != "12" {
		t.Fatalf("Extract = %v", got)
	}
	if _, ok := p.Extract("teams/core/members/x"); ok {
		t.Fatal("expected no match")
	}

	params := p.Params()
	if len(params) != 2 || params[0] != (pattern.Param{Name: "team", Type: pattern.TypeSlug}) {
		t.Fatalf("Params = %v", params)
	}

	lit := pattern.MustCompile("a/b")
	if vals, ok := lit.Extract("a/b"); !ok || len(vals) != 0 {
		t.Fatalf("literal Extract = %v, %v", vals, ok)
	}
}

func TestRootTemplate(t *testing.T) {
	for _, raw := range []string{"", "/", "//"} {
		p := pattern.MustCompile(raw)
		if !p.IsLiteral() || p.String() != "" {
			t.Fatalf("root %q compiled to %q", raw, p)
		}
		if !p.Match("") {
			t.Fatalf("root %q should match canonical root", raw)
		}
	}
}

func TestCacheCompilesOnce(t *testing.T) {
	c := pattern.NewCache()

	var wg sync.WaitGroup
	results := make([]*pattern.Pattern, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.Get("/employees/<int:id>/")
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = p
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent lookups returned different compiled patterns")
		}
	}
	// Spelling variants share one entry.
	if p, _ := c.Get("employees/<int:id>"); p != results[0] {
		t.Fatal("normalized key not shared")
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestCacheRemembersFailures(t *testing.T) {
	c := pattern.NewCache()
	for i := range 3 {
		_, err := c.Get("/reports/<weird:id>/")
		if !errors.Is(err, pattern.ErrUnknownType) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}
