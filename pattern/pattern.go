// Package pattern compiles permission path templates into matchers.
//
// A template is a canonical path (see urlpath.Normalize) whose text may
// contain placeholders written <type:name> or <name>:
//
//	employees/<int:id>/edit
//	docs/<slug:section>/<path:rest>
//	orders/<uuid:order>
//
// Templates without placeholders compile to a plain string comparison.
// Everything else compiles to a fully anchored regular expression in which
// literal text is escaped. Unknown placeholder types are rejected rather
// than treated as generic.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xraph/routeguard/urlpath"
)

// Type is a placeholder type.
type Type string

const (
	TypeInt  Type = "int"
	TypeStr  Type = "str"
	TypeSlug Type = "slug"
	TypeUUID Type = "uuid"
	TypePath Type = "path"
	// TypeAny is the type of an untyped placeholder such as <id>.
	TypeAny Type = ""
)

var classes = map[Type]string{
	TypeInt:  `[0-9]+`,
	TypeStr:  `[^/]+`,
	TypeSlug: `[a-z0-9_-]+`,
	TypeUUID: `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`,
	TypePath: `.+`,
	TypeAny:  `[^/]+`,
}

// Valid reports whether t is a recognized placeholder type.
func (t Type) Valid() bool {
	_, ok := classes[t]
	return ok
}

var (
	// ErrUnknownType is returned for a placeholder type outside the grammar.
	ErrUnknownType = errors.New("pattern: unknown placeholder type")
	// ErrMalformed is returned for placeholders that do not parse.
	ErrMalformed = errors.New("pattern: malformed placeholder")
)

// CompileError describes why a template was rejected.
type CompileError struct {
	Pattern string
	Offset  int
	Detail  string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%v in %q at offset %d: %s", e.Err, e.Pattern, e.Offset, e.Detail)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Param is one placeholder of a compiled template.
type Param struct {
	Name string
	Type Type
}

// Pattern is an immutable compiled template, safe for concurrent use.
type Pattern struct {
	source string
	params []Param
	re     *regexp.Regexp
}

// Compile normalizes raw and compiles it.
func Compile(raw string) (*Pattern, error) {
	src := urlpath.Normalize(raw)

	var (
		expr    strings.Builder
		params  []Param
		literal strings.Builder
	)
	expr.WriteByte('^')
	flush := func() {
		if literal.Len() > 0 {
			expr.WriteString(regexp.QuoteMeta(literal.String()))
			literal.Reset()
		}
	}

	seen := make(map[string]struct{})
	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '>':
			return nil, &CompileError{Pattern: src, Offset: i, Detail: "unexpected '>'", Err: ErrMalformed}
		case '<':
			end := strings.IndexAny(src[i+1:], "<>")
			if end < 0 || src[i+1+end] == '<' {
				return nil, &CompileError{Pattern: src, Offset: i, Detail: "unterminated placeholder", Err: ErrMalformed}
			}
			body := src[i+1 : i+1+end]
			p, err := parseParam(body)
			if err != nil {
				err.Pattern, err.Offset = src, i
				return nil, err
			}
			if _, dup := seen[p.Name]; dup {
				return nil, &CompileError{Pattern: src, Offset: i, Detail: "duplicate name " + p.Name, Err: ErrMalformed}
			}
			seen[p.Name] = struct{}{}
			params = append(params, p)

			flush()
			expr.WriteByte('(')
			expr.WriteString(classes[p.Type])
			expr.WriteByte(')')
			i += end + 1
		default:
			literal.WriteByte(c)
		}
	}

	pat := &Pattern{source: src, params: params}
	if len(params) == 0 {
		return pat, nil
	}
	flush()
	expr.WriteByte('$')

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, &CompileError{Pattern: src, Detail: err.Error(), Err: ErrMalformed}
	}
	pat.re = re
	return pat, nil
}

// MustCompile is Compile for static templates. It panics on error.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func parseParam(body string) (Param, *CompileError) {
	typ, name, typed := strings.Cut(body, ":")
	if !typed {
		typ, name = "", body
	}
	if !validName(name) {
		return Param{}, &CompileError{Detail: fmt.Sprintf("invalid name %q", name), Err: ErrMalformed}
	}
	if typed && typ == "" {
		return Param{}, &CompileError{Detail: "empty type", Err: ErrMalformed}
	}
	t := Type(typ)
	if !t.Valid() {
		return Param{}, &CompileError{Detail: fmt.Sprintf("type %q", typ), Err: ErrUnknownType}
	}
	return Param{Name: name, Type: t}, nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Match reports whether the canonical path matches the template.
func (p *Pattern) Match(path string) bool {
	if p.re == nil {
		return path == p.source
	}
	return p.re.MatchString(path)
}

// Extract returns the placeholder values captured from path.
func (p *Pattern) Extract(path string) (map[string]string, bool) {
	if p.re == nil {
		if path != p.source {
			return nil, false
		}
		return map[string]string{}, true
	}
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	out := make(map[string]string, len(p.params))
	for i, param := range p.params {
		out[param.Name] = m[i+1]
	}
	return out, true
}

// String returns the canonical template text.
func (p *Pattern) String() string { return p.source }

// IsLiteral reports whether the template has no placeholders.
func (p *Pattern) IsLiteral() bool { return p.re == nil }

// Params returns a copy of the template's placeholders in order.
func (p *Pattern) Params() []Param {
	return append([]Param(nil), p.params...)
}
