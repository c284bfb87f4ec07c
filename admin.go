package routeguard

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
	"github.com/xraph/routeguard/urlpath"
)

// ──────────────────────────────────────────────────
// Permissions
// ──────────────────────────────────────────────────

// RegisterPermission compiles p.Pattern and upserts the permission by its
// canonical pattern. A pattern that does not compile is rejected with an
// error wrapping both ErrInvalidPattern and the *pattern.CompileError, and
// is never stored.
//
// Without force an existing record is returned untouched. With force its
// name and description are overwritten. created reports whether a new
// record was inserted.
func (e *Engine) RegisterPermission(ctx context.Context, p *permission.Permission, force bool) (*permission.Permission, bool, error) {
	if _, err := e.patterns.Get(p.Pattern); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	stored, created, err := e.store.UpsertPermission(ctx, p, force)
	if err != nil {
		return nil, false, err
	}

	switch {
	case created:
		if e.plugins != nil {
			e.plugins.EmitPermissionCreated(ctx, stored)
		}
	case force:
		e.invalidateAll(ctx)
		if e.plugins != nil {
			e.plugins.EmitPermissionUpdated(ctx, stored)
		}
	}
	return stored, created, nil
}

// SetPermissionActive activates or deactivates a permission. Inactive
// permissions never match.
func (e *Engine) SetPermissionActive(ctx context.Context, permID id.PermissionID, active bool) (*permission.Permission, error) {
	p, err := e.store.GetPermission(ctx, permID)
	if err != nil {
		return nil, err
	}
	if p.IsActive == active {
		return p, nil
	}
	p.IsActive = active
	if err := e.store.UpdatePermission(ctx, p); err != nil {
		return nil, err
	}
	e.invalidateAll(ctx)
	if e.plugins != nil {
		e.plugins.EmitPermissionUpdated(ctx, p)
	}
	return p, nil
}

// PermissionsFor returns the permissions the principal can exercise,
// ordered by pattern. Superusers get every active permission.
func (e *Engine) PermissionsFor(ctx context.Context, p *Principal) ([]*permission.Permission, error) {
	switch {
	case p == nil:
		return []*permission.Permission{}, nil
	case p.IsSuperuser:
		active := true
		perms, err := e.store.ListPermissions(ctx, &permission.ListFilter{IsActive: &active})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return perms, nil
	case p.Role == nil || !p.Role.IsActive:
		return []*permission.Permission{}, nil
	}

	perms, err := e.store.ListActivePermissionsByRole(ctx, p.Role.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	slices.SortFunc(perms, func(a, b *permission.Permission) int {
		return cmp.Compare(a.Pattern, b.Pattern)
	})
	return perms, nil
}

// ──────────────────────────────────────────────────
// Roles
// ──────────────────────────────────────────────────

// CreateRole validates and stores a new role. A nil ID is assigned.
func (e *Engine) CreateRole(ctx context.Context, r *role.Role) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRole)
	}
	if r.ID.IsNil() {
		r.ID = id.NewRoleID()
	}
	if err := e.store.CreateRole(ctx, r); err != nil {
		return err
	}
	if e.plugins != nil {
		e.plugins.EmitRoleCreated(ctx, r)
	}
	return nil
}

// UpdateRole persists changes to a role's name, description, activity or
// metadata.
func (e *Engine) UpdateRole(ctx context.Context, r *role.Role) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRole)
	}
	if err := e.store.UpdateRole(ctx, r); err != nil {
		return err
	}
	e.invalidateRole(ctx, r.ID)
	if e.plugins != nil {
		e.plugins.EmitRoleUpdated(ctx, r)
	}
	return nil
}

// DeleteRole removes a role and its permission links. The permissions
// themselves are kept.
func (e *Engine) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	if _, err := e.store.GetRole(ctx, roleID); err != nil {
		return err
	}
	if err := e.store.DeleteRole(ctx, roleID); err != nil {
		return err
	}
	e.invalidateRole(ctx, roleID)
	if e.plugins != nil {
		e.plugins.EmitRoleDeleted(ctx, roleID)
	}
	return nil
}

// AttachPermission grants a permission to a role.
func (e *Engine) AttachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	if err := e.store.AttachPermission(ctx, roleID, permID); err != nil {
		return err
	}
	e.invalidateRole(ctx, roleID)
	if e.plugins != nil {
		e.plugins.EmitPermissionAttached(ctx, roleID, permID)
	}
	return nil
}

// DetachPermission revokes a permission from a role.
func (e *Engine) DetachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	if err := e.store.DetachPermission(ctx, roleID, permID); err != nil {
		return err
	}
	e.invalidateRole(ctx, roleID)
	if e.plugins != nil {
		e.plugins.EmitPermissionDetached(ctx, roleID, permID)
	}
	return nil
}

// SetRolePermissions replaces the role's permission set. Plugins see one
// attach or detach event per permission that entered or left the set.
func (e *Engine) SetRolePermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) error {
	current, err := e.store.ListPermissionsByRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := e.store.SetRolePermissions(ctx, roleID, permIDs); err != nil {
		return err
	}
	e.invalidateRole(ctx, roleID)
	if e.plugins == nil {
		return nil
	}

	before := make(map[string]struct{}, len(current))
	for _, p := range current {
		before[p.ID.String()] = struct{}{}
	}
	after := make(map[string]struct{}, len(permIDs))
	for _, permID := range permIDs {
		key := permID.String()
		if _, seen := after[key]; seen {
			continue
		}
		after[key] = struct{}{}
		if _, ok := before[key]; !ok {
			e.plugins.EmitPermissionAttached(ctx, roleID, permID)
		}
	}
	for _, p := range current {
		if _, ok := after[p.ID.String()]; !ok {
			e.plugins.EmitPermissionDetached(ctx, roleID, p.ID)
		}
	}
	return nil
}

func (e *Engine) invalidateRole(ctx context.Context, roleID id.RoleID) {
	if e.cache != nil {
		e.cache.InvalidateRole(ctx, roleID)
	}
}

func (e *Engine) invalidateAll(ctx context.Context) {
	if e.cache != nil {
		e.cache.InvalidateAll(ctx)
	}
}

// GetPermissionByPattern looks a permission up by its template. raw is
// normalized first.
func (e *Engine) GetPermissionByPattern(ctx context.Context, raw string) (*permission.Permission, error) {
	return e.store.GetPermissionByPattern(ctx, urlpath.Normalize(raw))
}
