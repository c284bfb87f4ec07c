package permission

import (
	"context"

	"github.com/xraph/routeguard/id"
)

// Store defines persistence operations for permissions.
type Store interface {
	// CreatePermission persists a new permission. It returns
	// ErrDuplicatePattern if the pattern is already registered.
	CreatePermission(ctx context.Context, p *Permission) error

	// GetPermission retrieves a permission by ID.
	GetPermission(ctx context.Context, permID id.PermissionID) (*Permission, error)

	// GetPermissionByPattern retrieves a permission by its canonical pattern.
	GetPermissionByPattern(ctx context.Context, pattern string) (*Permission, error)

	// UpdatePermission persists changes to a permission.
	UpdatePermission(ctx context.Context, p *Permission) error

	// UpsertPermission registers p unless its pattern already exists. An
	// existing record is returned untouched, or with Name and Description
	// overwritten when force is set. The bool reports whether a record was
	// created.
	UpsertPermission(ctx context.Context, p *Permission, force bool) (*Permission, bool, error)

	// ListPermissions returns permissions matching the filter.
	ListPermissions(ctx context.Context, filter *ListFilter) ([]*Permission, error)

	// CountPermissions returns the number of permissions matching the filter.
	CountPermissions(ctx context.Context, filter *ListFilter) (int64, error)

	// ListPermissionsByRole returns all permissions attached to a role.
	ListPermissionsByRole(ctx context.Context, roleID id.RoleID) ([]*Permission, error)

	// ListActivePermissionsByRole returns the active permissions attached
	// to a role. This is the read performed on every authorization.
	ListActivePermissionsByRole(ctx context.Context, roleID id.RoleID) ([]*Permission, error)
}
