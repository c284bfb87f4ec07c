package routeguard

import (
	"errors"

	"github.com/xraph/routeguard/checklog"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
)

var (
	// ErrAccessDenied is returned by Enforce when a check is denied.
	ErrAccessDenied = errors.New("routeguard: access denied")

	// ErrStoreUnavailable wraps a failed permission read. Callers must treat
	// it as a denial.
	ErrStoreUnavailable = errors.New("routeguard: permission store unavailable")

	// ErrInvalidPattern wraps a *pattern.CompileError raised at registration.
	ErrInvalidPattern = errors.New("routeguard: invalid permission pattern")

	// ErrInvalidRole is returned when a role has no name.
	ErrInvalidRole = errors.New("routeguard: invalid role")

	// ErrRoleNotFound is returned when a role cannot be found.
	ErrRoleNotFound = role.ErrNotFound

	// ErrDuplicateRoleName is returned when a role name is already taken.
	ErrDuplicateRoleName = role.ErrDuplicateName

	// ErrPermissionNotFound is returned when a permission cannot be found.
	ErrPermissionNotFound = permission.ErrNotFound

	// ErrDuplicatePattern is returned when a pattern is already registered.
	ErrDuplicatePattern = permission.ErrDuplicatePattern

	// ErrCheckLogNotFound is returned when a check log entry cannot be found.
	ErrCheckLogNotFound = checklog.ErrNotFound
)
