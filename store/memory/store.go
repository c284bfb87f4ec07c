// Package memory provides an in-memory implementation of the routeguard
// composite store. It is intended for testing and development.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xraph/routeguard/checklog"
	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
	"github.com/xraph/routeguard/urlpath"
)

// Compile-time interface checks.
var (
	_ role.Store       = (*Store)(nil)
	_ permission.Store = (*Store)(nil)
	_ checklog.Store   = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all routeguard entities.
type Store struct {
	mu sync.RWMutex

	roles           map[string]*role.Role
	permissions     map[string]*permission.Permission
	byPattern       map[string]string              // pattern -> permID
	rolePermissions map[string]map[string]struct{} // roleID -> set of permIDs
	checkLogs       map[string]*checklog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		roles:           make(map[string]*role.Role),
		permissions:     make(map[string]*permission.Permission),
		byPattern:       make(map[string]string),
		rolePermissions: make(map[string]map[string]struct{}),
		checkLogs:       make(map[string]*checklog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == r.Name {
			return fmt.Errorf("role %q: %w", r.Name, role.ErrDuplicateName)
		}
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, role.ErrNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) GetRoleByName(_ context.Context, name string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.Name == name {
			return copyRole(r), nil
		}
	}
	return nil, fmt.Errorf("role %q: %w", name, role.ErrNotFound)
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; !ok {
		return fmt.Errorf("role %s: %w", r.ID, role.ErrNotFound)
	}
	for k, existing := range s.roles {
		if k != r.ID.String() && existing.Name == r.Name {
			return fmt.Errorf("role %q: %w", r.Name, role.ErrDuplicateName)
		}
	}
	r.UpdatedAt = time.Now().UTC()
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, roleID.String())
	delete(s.rolePermissions, roleID.String())
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if filter != nil {
			if filter.IsActive != nil && r.IsActive != *filter.IsActive {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyRole(r))
	}
	slices.SortFunc(result, func(a, b *role.Role) int { return cmp.Compare(a.Name, b.Name) })
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	var unpaged *role.ListFilter
	if filter != nil {
		unpaged = &role.ListFilter{IsActive: filter.IsActive, Search: filter.Search}
	}
	list, err := s.ListRoles(ctx, unpaged)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) ListRolePermissions(_ context.Context, roleID id.RoleID) ([]id.PermissionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perms, ok := s.rolePermissions[roleID.String()]
	if !ok {
		return nil, nil
	}
	result := make([]id.PermissionID, 0, len(perms))
	for _, pid := range slices.Sorted(maps.Keys(perms)) {
		parsed, err := id.ParsePermissionID(pid)
		if err == nil {
			result = append(result, parsed)
		}
	}
	return result, nil
}

func (s *Store) AttachPermission(_ context.Context, roleID id.RoleID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLink(roleID, permID); err != nil {
		return err
	}
	rk := roleID.String()
	if s.rolePermissions[rk] == nil {
		s.rolePermissions[rk] = make(map[string]struct{})
	}
	s.rolePermissions[rk][permID.String()] = struct{}{}
	return nil
}

func (s *Store) DetachPermission(_ context.Context, roleID id.RoleID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if perms, ok := s.rolePermissions[roleID.String()]; ok {
		delete(perms, permID.String())
	}
	return nil
}

func (s *Store) SetRolePermissions(_ context.Context, roleID id.RoleID, permIDs []id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	perms := make(map[string]struct{}, len(permIDs))
	for _, pid := range permIDs {
		if err := s.checkLink(roleID, pid); err != nil {
			return err
		}
		perms[pid.String()] = struct{}{}
	}
	s.rolePermissions[roleID.String()] = perms
	return nil
}

// checkLink mirrors the foreign keys of the SQL backends. Caller holds mu.
func (s *Store) checkLink(roleID id.RoleID, permID id.PermissionID) error {
	if _, ok := s.roles[roleID.String()]; !ok {
		return fmt.Errorf("role %s: %w", roleID, role.ErrNotFound)
	}
	if _, ok := s.permissions[permID.String()]; !ok {
		return fmt.Errorf("permission %s: %w", permID, permission.ErrNotFound)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission Store
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createPermissionLocked(p)
}

func (s *Store) createPermissionLocked(p *permission.Permission) error {
	key := urlpath.Normalize(p.Pattern)
	if _, dup := s.byPattern[key]; dup {
		return fmt.Errorf("pattern %q: %w", key, permission.ErrDuplicatePattern)
	}
	c := copyPermission(p)
	c.Pattern = key
	s.permissions[c.ID.String()] = c
	s.byPattern[key] = c.ID.String()
	return nil
}

func (s *Store) GetPermission(_ context.Context, permID id.PermissionID) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[permID.String()]
	if !ok {
		return nil, fmt.Errorf("permission %s: %w", permID, permission.ErrNotFound)
	}
	return copyPermission(p), nil
}

func (s *Store) GetPermissionByPattern(_ context.Context, pattern string) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := urlpath.Normalize(pattern)
	pid, ok := s.byPattern[key]
	if !ok {
		return nil, fmt.Errorf("pattern %q: %w", key, permission.ErrNotFound)
	}
	return copyPermission(s.permissions[pid]), nil
}

func (s *Store) UpdatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.permissions[p.ID.String()]
	if !ok {
		return fmt.Errorf("permission %s: %w", p.ID, permission.ErrNotFound)
	}
	key := urlpath.Normalize(p.Pattern)
	if key != prev.Pattern {
		if _, dup := s.byPattern[key]; dup {
			return fmt.Errorf("pattern %q: %w", key, permission.ErrDuplicatePattern)
		}
		delete(s.byPattern, prev.Pattern)
		s.byPattern[key] = p.ID.String()
	}
	p.UpdatedAt = time.Now().UTC()
	c := copyPermission(p)
	c.Pattern = key
	s.permissions[p.ID.String()] = c
	return nil
}

// UpsertPermission runs under a single write lock, so concurrent upserts of
// the same pattern create exactly one record.
func (s *Store) UpsertPermission(_ context.Context, p *permission.Permission, force bool) (*permission.Permission, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := urlpath.Normalize(p.Pattern)
	if pid, ok := s.byPattern[key]; ok {
		existing := s.permissions[pid]
		if force {
			permission.ApplyForce(existing, p)
		}
		return copyPermission(existing), false, nil
	}

	created := copyPermission(p)
	created.IsActive = true
	permission.Prepare(created, time.Now().UTC())
	if err := s.createPermissionLocked(created); err != nil {
		return nil, false, err
	}
	return copyPermission(created), true, nil
}

func (s *Store) ListPermissions(_ context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*permission.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		if filter.Match(p) {
			result = append(result, copyPermission(p))
		}
	}
	sortPermissions(result)
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountPermissions(_ context.Context, filter *permission.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, p := range s.permissions {
		if filter.Match(p) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListPermissionsByRole(_ context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	return s.permissionsByRole(roleID, false), nil
}

func (s *Store) ListActivePermissionsByRole(_ context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	return s.permissionsByRole(roleID, true), nil
}

func (s *Store) permissionsByRole(roleID id.RoleID, activeOnly bool) []*permission.Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perms, ok := s.rolePermissions[roleID.String()]
	if !ok {
		return nil
	}
	result := make([]*permission.Permission, 0, len(perms))
	for pid := range perms {
		p, ok := s.permissions[pid]
		if !ok || (activeOnly && !p.IsActive) {
			continue
		}
		result = append(result, copyPermission(p))
	}
	sortPermissions(result)
	return result
}

// ──────────────────────────────────────────────────
// Check Log Store
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(_ context.Context, e *checklog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkLogs[e.ID.String()] = copyCheckLog(e)
	return nil
}

func (s *Store) GetCheckLog(_ context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.checkLogs[logID.String()]
	if !ok {
		return nil, fmt.Errorf("check log %s: %w", logID, checklog.ErrNotFound)
	}
	return copyCheckLog(e), nil
}

func (s *Store) ListCheckLogs(_ context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*checklog.Entry, 0, len(s.checkLogs))
	for _, e := range s.checkLogs {
		if filter.Match(e) {
			result = append(result, copyCheckLog(e))
		}
	}
	slices.SortFunc(result, func(a, b *checklog.Entry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID.String(), a.ID.String())
	})
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountCheckLogs(_ context.Context, filter *checklog.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.checkLogs {
		if filter.Match(e) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeCheckLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k, e := range s.checkLogs {
		if e.CreatedAt.Before(before) {
			delete(s.checkLogs, k)
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyRole(r *role.Role) *role.Role {
	c := *r
	c.Metadata = maps.Clone(r.Metadata)
	return &c
}

func copyPermission(p *permission.Permission) *permission.Permission {
	c := *p
	c.Metadata = maps.Clone(p.Metadata)
	return &c
}

func copyCheckLog(e *checklog.Entry) *checklog.Entry {
	c := *e
	c.Metadata = maps.Clone(e.Metadata)
	return &c
}

func sortPermissions(ps []*permission.Permission) {
	slices.SortFunc(ps, func(a, b *permission.Permission) int { return cmp.Compare(a.Pattern, b.Pattern) })
}

func paginate[T any](items []*T, limit, offset int) []*T {
	if offset >= len(items) {
		if offset > 0 {
			return nil
		}
		return items
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
