package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/routeguard/checklog"
	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
	"github.com/xraph/routeguard/store"
	"github.com/xraph/routeguard/store/storetest"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{ID: id.NewRoleID(), Name: "Manager", IsActive: true}

	// Create
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	dup := &role.Role{ID: id.NewRoleID(), Name: "Manager"}
	if err := s.CreateRole(ctx, dup); !errors.Is(err, role.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	// Get
	got, err := s.GetRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Manager" {
		t.Fatalf("expected Manager, got %s", got.Name)
	}

	// GetByName
	got, err = s.GetRoleByName(ctx, "Manager")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != r.ID {
		t.Fatal("name lookup mismatch")
	}

	// Update
	r.IsActive = false
	if err := s.UpdateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetRole(ctx, r.ID)
	if got.IsActive {
		t.Fatal("update not persisted")
	}

	// List / Count
	_ = s.CreateRole(ctx, &role.Role{ID: id.NewRoleID(), Name: "Auditor", IsActive: true})
	list, err := s.ListRoles(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "Auditor" {
		t.Fatalf("expected 2 roles sorted by name, got %d", len(list))
	}
	active := true
	n, err := s.CountRoles(ctx, &role.ListFilter{IsActive: &active, Limit: 1})
	if err != nil || n != 1 {
		t.Fatalf("CountRoles = %d, %v", n, err)
	}

	// Delete
	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRole(ctx, r.ID); !errors.Is(err, role.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPermissionUniquePattern(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &permission.Permission{ID: id.NewPermissionID(), Pattern: "/employees/<int:id>/", IsActive: true}
	if err := s.CreatePermission(ctx, p); err != nil {
		t.Fatal(err)
	}
	other := &permission.Permission{ID: id.NewPermissionID(), Pattern: "employees/<int:id>"}
	if err := s.CreatePermission(ctx, other); !errors.Is(err, permission.ErrDuplicatePattern) {
		t.Fatalf("expected ErrDuplicatePattern, got %v", err)
	}

	got, err := s.GetPermissionByPattern(ctx, "//employees/<int:id>")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != p.ID || got.Pattern != "employees/<int:id>" {
		t.Fatalf("lookup returned %+v", got)
	}
	if _, err := s.GetPermissionByPattern(ctx, "missing"); !errors.Is(err, permission.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, created, err := s.UpsertPermission(ctx, &permission.Permission{Pattern: "api/v1/employee/create/"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("first upsert should create")
	}
	if first.Name != "employee_create" || !first.IsActive {
		t.Fatalf("unexpected defaults: %+v", first)
	}

	second, created, err := s.UpsertPermission(ctx, &permission.Permission{
		Pattern: "/api/v1/employee/create", Name: "renamed", Description: "changed",
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("second upsert must report wasCreated=false")
	}
	if second.ID != first.ID || second.Name != first.Name || second.Description != first.Description {
		t.Fatalf("non-forced upsert mutated the record: %+v", second)
	}

	forced, created, err := s.UpsertPermission(ctx, &permission.Permission{
		Pattern: "api/v1/employee/create", Name: "Create employee", Description: "forced",
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	if created || forced.Name != "Create employee" || forced.Description != "forced" {
		t.Fatalf("forced upsert = %+v created=%v", forced, created)
	}
	stored, _ := s.GetPermission(ctx, first.ID)
	if stored.Name != "Create employee" {
		t.Fatal("forced labels not persisted")
	}

	n, _ := s.CountPermissions(ctx, nil)
	if n != 1 {
		t.Fatalf("expected 1 permission, got %d", n)
	}
}

func TestUpsertConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := s.UpsertPermission(ctx, &permission.Permission{Pattern: "reports/daily"}, false)
			if err != nil {
				t.Error(err)
				return
			}
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if createdCount != 1 {
		t.Fatalf("expected exactly one creation, got %d", createdCount)
	}
}

func TestRolePermissions(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{ID: id.NewRoleID(), Name: "Manager", IsActive: true}
	_ = s.CreateRole(ctx, r)

	on := &permission.Permission{ID: id.NewPermissionID(), Pattern: "b/on", IsActive: true}
	off := &permission.Permission{ID: id.NewPermissionID(), Pattern: "a/off", IsActive: false}
	_ = s.CreatePermission(ctx, on)
	_ = s.CreatePermission(ctx, off)

	if err := s.AttachPermission(ctx, r.ID, on.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.AttachPermission(ctx, r.ID, off.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.AttachPermission(ctx, r.ID, id.NewPermissionID()); !errors.Is(err, permission.ErrNotFound) {
		t.Fatalf("attaching unknown permission: %v", err)
	}

	all, _ := s.ListPermissionsByRole(ctx, r.ID)
	if len(all) != 2 || all[0].Pattern != "a/off" {
		t.Fatalf("ListPermissionsByRole = %d entries", len(all))
	}
	active, _ := s.ListActivePermissionsByRole(ctx, r.ID)
	if len(active) != 1 || active[0].ID != on.ID {
		t.Fatalf("ListActivePermissionsByRole = %+v", active)
	}

	if err := s.SetRolePermissions(ctx, r.ID, []id.PermissionID{off.ID}); err != nil {
		t.Fatal(err)
	}
	ids, _ := s.ListRolePermissions(ctx, r.ID)
	if len(ids) != 1 || ids[0] != off.ID {
		t.Fatalf("ListRolePermissions = %v", ids)
	}

	if err := s.DetachPermission(ctx, r.ID, off.ID); err != nil {
		t.Fatal(err)
	}
	ids, _ = s.ListRolePermissions(ctx, r.ID)
	if len(ids) != 0 {
		t.Fatalf("expected no links, got %v", ids)
	}

	// Deleting a role never removes permissions.
	_ = s.AttachPermission(ctx, r.ID, on.ID)
	_ = s.DeleteRole(ctx, r.ID)
	if _, err := s.GetPermission(ctx, on.ID); err != nil {
		t.Fatalf("permission removed with role: %v", err)
	}
}

func TestPermissionListFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, pat := range []string{"c", "a", "b"} {
		_, _, _ = s.UpsertPermission(ctx, &permission.Permission{Pattern: pat}, false)
	}
	p, _ := s.GetPermissionByPattern(ctx, "b")
	p.IsActive = false
	if err := s.UpdatePermission(ctx, p); err != nil {
		t.Fatal(err)
	}

	list, _ := s.ListPermissions(ctx, &permission.ListFilter{Limit: 2})
	if len(list) != 2 || list[0].Pattern != "a" || list[1].Pattern != "b" {
		t.Fatalf("unexpected page: %v", list)
	}
	active := true
	list, _ = s.ListPermissions(ctx, &permission.ListFilter{IsActive: &active})
	if len(list) != 2 {
		t.Fatalf("expected 2 active, got %d", len(list))
	}
	list, _ = s.ListPermissions(ctx, &permission.ListFilter{Offset: 5})
	if len(list) != 0 {
		t.Fatalf("expected empty page, got %d", len(list))
	}
}

func TestCheckLogs(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Now().UTC()
	for i := range 4 {
		e := &checklog.Entry{
			ID:          id.NewCheckLogID(),
			PrincipalID: "u1",
			Path:        "employees/42",
			Allowed:     i%2 == 0,
			Decision:    "allow",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if !e.Allowed {
			e.Decision = "deny_no_match"
		}
		if err := s.CreateCheckLog(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	list, _ := s.ListCheckLogs(ctx, nil)
	if len(list) != 4 || !list[0].CreatedAt.After(list[3].CreatedAt) {
		t.Fatal("expected newest first")
	}
	if _, err := s.GetCheckLog(ctx, list[0].ID); err != nil {
		t.Fatal(err)
	}

	denied := false
	n, _ := s.CountCheckLogs(ctx, &checklog.QueryFilter{Allowed: &denied})
	if n != 2 {
		t.Fatalf("expected 2 denials, got %d", n)
	}

	purged, _ := s.PurgeCheckLogs(ctx, base.Add(90*time.Second))
	if purged != 2 {
		t.Fatalf("expected 2 purged, got %d", purged)
	}
	if _, err := s.GetCheckLog(ctx, id.NewCheckLogID()); !errors.Is(err, checklog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreSuite(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return New() })
}
