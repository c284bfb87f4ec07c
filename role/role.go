// Package role defines the Role entity, a named bundle of permissions, and
// its store interface.
package role

import (
	"errors"
	"time"

	"github.com/xraph/routeguard/id"
)

var (
	// ErrNotFound is returned by stores when a role does not exist.
	ErrNotFound = errors.New("routeguard: role not found")

	// ErrDuplicateName is returned when a role name is already taken.
	ErrDuplicateName = errors.New("routeguard: role name already taken")
)

// Role groups the permissions granted to the principals that hold it. An
// inactive role grants nothing.
type Role struct {
	ID          id.RoleID      `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description,omitempty" db:"description"`
	IsActive    bool           `json:"is_active" db:"is_active"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing roles.
type ListFilter struct {
	IsActive *bool  `json:"is_active,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
