package api

import "github.com/xraph/routeguard/manifest"

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the request body for an ad-hoc path check.
type CheckRequest struct {
	Path        string `json:"path" description:"Request path, with or without slashes and query string"`
	PrincipalID string `json:"principal_id,omitempty" description:"Caller identifier, recorded in the audit log"`
	RoleID      string `json:"role_id,omitempty" description:"Role held by the caller"`
	IsSuperuser bool   `json:"is_superuser,omitempty" description:"Bypass role checks"`
}

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	Name        string         `json:"name" description:"Unique role name"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	IsActive    *bool          `json:"is_active,omitempty" description:"Active flag (default: true)"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateRoleRequest is the body for updating a role.
type UpdateRoleRequest struct {
	Name        string         `json:"name,omitempty" description:"Role name"`
	Description *string        `json:"description,omitempty" description:"Human-readable description"`
	IsActive    *bool          `json:"is_active,omitempty" description:"Active flag"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetRoleRequest is the path parameter for getting a role.
type GetRoleRequest struct {
	RoleID string `path:"roleId" description:"Role ID"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	Active string `query:"active" description:"Filter by active status (true/false)"`
	Search string `query:"search" description:"Search by name"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ListRolePermissionsRequest holds the role and filter for its permissions.
type ListRolePermissionsRequest struct {
	RoleID string `path:"roleId" description:"Role ID"`
	Active string `query:"active" description:"Only permissions the role can exercise (true)"`
}

// AttachPermissionRequest is the body for attaching a permission to a role.
type AttachPermissionRequest struct {
	PermissionID string `json:"permission_id" description:"Permission ID to attach"`
}

// SetRolePermissionsRequest replaces a role's permission set.
type SetRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" description:"Complete set of permission IDs"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// RegisterPermissionRequest is the body for registering a permission.
type RegisterPermissionRequest struct {
	Pattern     string         `json:"pattern" description:"Path template, e.g. employees/<int:id>/edit"`
	Name        string         `json:"name,omitempty" description:"Display name (derived from the pattern when empty)"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	Force       bool           `json:"force,omitempty" description:"Overwrite name and description of an existing pattern"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetPermissionRequest is the path parameter for getting a permission.
type GetPermissionRequest struct {
	PermissionID string `path:"permissionId" description:"Permission ID"`
}

// ListPermissionsRequest holds query parameters.
type ListPermissionsRequest struct {
	Active string `query:"active" description:"Filter by active status (true/false)"`
	Search string `query:"search" description:"Search by name or pattern"`
	Limit  int    `query:"limit" description:"Maximum results"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// SyncRequest is the body of a permission sync.
type SyncRequest struct {
	manifest.Manifest
	DryRun bool `json:"dry_run,omitempty" description:"Report without writing"`
	Force  bool `json:"force,omitempty" description:"Overwrite names of existing permissions"`
}

// ──────────────────────────────────────────────────
// Check log requests
// ──────────────────────────────────────────────────

// ListCheckLogsRequest holds query parameters for querying check logs.
type ListCheckLogsRequest struct {
	PrincipalID string `query:"principal_id" description:"Filter by principal"`
	RoleID      string `query:"role_id" description:"Filter by role ID"`
	Path        string `query:"path" description:"Filter by request path"`
	Decision    string `query:"decision" description:"Filter by decision"`
	Allowed     string `query:"allowed" description:"Filter by outcome (true/false)"`
	After       string `query:"after" description:"After timestamp (RFC3339)"`
	Before      string `query:"before" description:"Before timestamp (RFC3339)"`
	Limit       int    `query:"limit" description:"Maximum results"`
	Offset      int    `query:"offset" description:"Results to skip"`
}
