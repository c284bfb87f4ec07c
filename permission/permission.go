// Package permission defines the Permission entity, a registered path
// template that roles are granted, and its store interface.
package permission

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/urlpath"
)

var (
	// ErrNotFound is returned by stores when a permission does not exist.
	ErrNotFound = errors.New("routeguard: permission not found")

	// ErrDuplicatePattern is returned when a pattern is already registered.
	ErrDuplicatePattern = errors.New("routeguard: permission pattern already registered")
)

// Permission grants access to every request path its Pattern matches.
//
// Pattern is stored in canonical form (see urlpath.Normalize) and is unique
// across the store. Permissions are deactivated, never deleted.
type Permission struct {
	ID          id.PermissionID `json:"id" db:"id"`
	Pattern     string          `json:"pattern" db:"pattern"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	Metadata    map[string]any  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing permissions. Results are ordered
// by pattern.
type ListFilter struct {
	IsActive *bool  `json:"is_active,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Match reports whether p passes the filter, ignoring pagination.
func (f *ListFilter) Match(p *Permission) bool {
	if f == nil {
		return true
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Pattern), q) {
			return false
		}
	}
	return true
}

var versionToken = regexp.MustCompile(`^v[0-9]+$`)

// DeriveName builds the default display name of a pattern: its segments
// joined with "_", minus a leading "api/<version>" prefix when at least one
// segment follows it. An empty pattern is named "root".
//
//	DeriveName("api/v1/employee/create/") == "employee_create"
//	DeriveName("employees/<int:id>/edit")  == "employees_<int:id>_edit"
func DeriveName(pattern string) string {
	segs := urlpath.Segments(urlpath.Normalize(pattern))
	if len(segs) == 0 {
		return "root"
	}
	if len(segs) > 2 && segs[0] == "api" && versionToken.MatchString(segs[1]) {
		segs = segs[2:]
	}
	return strings.Join(segs, "_")
}

// DefaultDescription is the description given to permissions registered
// without one.
func DefaultDescription(pattern string) string {
	return "Permission for endpoint: " + urlpath.Display(urlpath.Normalize(pattern))
}
