// Package storetest holds behaviour tests every routeguard store backend
// must pass. Backend test files call Run with a constructor for a fresh,
// migrated store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
	"github.com/xraph/routeguard/store"
)

// Factory returns an empty store ready for use.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Roles", func(t *testing.T) { testRoles(t, newStore(t)) })
	t.Run("DuplicatePattern", func(t *testing.T) { testDuplicatePattern(t, newStore(t)) })
	t.Run("PatternLookup", func(t *testing.T) { testPatternLookup(t, newStore(t)) })
	t.Run("Upsert", func(t *testing.T) { testUpsert(t, newStore(t)) })
	t.Run("ActivePermissionsByRole", func(t *testing.T) { testActivePermissionsByRole(t, newStore(t)) })
	t.Run("AttachDetach", func(t *testing.T) { testAttachDetach(t, newStore(t)) })
	t.Run("SetRolePermissions", func(t *testing.T) { testSetRolePermissions(t, newStore(t)) })
	t.Run("DeleteRoleKeepsPermissions", func(t *testing.T) { testDeleteRole(t, newStore(t)) })
}

func createRole(t *testing.T, s store.Store, name string) *role.Role {
	t.Helper()
	r := &role.Role{ID: id.NewRoleID(), Name: name, IsActive: true}
	if err := s.CreateRole(context.Background(), r); err != nil {
		t.Fatalf("create role %s: %v", name, err)
	}
	return r
}

func createPermission(t *testing.T, s store.Store, pattern string) *permission.Permission {
	t.Helper()
	p := &permission.Permission{Pattern: pattern, IsActive: true}
	permission.Prepare(p, time.Now().UTC())
	if err := s.CreatePermission(context.Background(), p); err != nil {
		t.Fatalf("create permission %s: %v", pattern, err)
	}
	return p
}

func patterns(perms []*permission.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = p.Pattern
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testRoles(t *testing.T, s store.Store) {
	ctx := context.Background()
	r := createRole(t, s, "manager")

	if err := s.CreateRole(ctx, &role.Role{ID: id.NewRoleID(), Name: "manager"}); !errors.Is(err, role.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	got, err := s.GetRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "manager" || !got.IsActive {
		t.Fatalf("unexpected role %+v", got)
	}

	got.IsActive = false
	got.Description = "suspended"
	if err := s.UpdateRole(ctx, got); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetRoleByName(ctx, "manager")
	if err != nil {
		t.Fatal(err)
	}
	if got.IsActive || got.Description != "suspended" {
		t.Fatalf("update not persisted: %+v", got)
	}

	if _, err := s.GetRole(ctx, id.NewRoleID()); !errors.Is(err, role.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testDuplicatePattern(t *testing.T, s store.Store) {
	createPermission(t, s, "employees/<int:id>")

	dup := &permission.Permission{Pattern: "/employees/<int:id>/", IsActive: true}
	permission.Prepare(dup, time.Now().UTC())
	err := s.CreatePermission(context.Background(), dup)
	if !errors.Is(err, permission.ErrDuplicatePattern) {
		t.Fatalf("expected ErrDuplicatePattern, got %v", err)
	}
}

func testPatternLookup(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := createPermission(t, s, "/reports/daily/")

	got, err := s.GetPermissionByPattern(ctx, "reports/daily")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != p.ID || got.Pattern != "reports/daily" || !got.IsActive {
		t.Fatalf("unexpected permission %+v", got)
	}

	if _, err := s.GetPermissionByPattern(ctx, "reports"); !errors.Is(err, permission.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()

	first, created, err := s.UpsertPermission(ctx, &permission.Permission{Pattern: "/api/v1/employee/create/"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !created || first.Name != "employee_create" || !first.IsActive {
		t.Fatalf("unexpected first upsert: created=%v %+v", created, first)
	}

	again, created, err := s.UpsertPermission(ctx, &permission.Permission{Pattern: "api/v1/employee/create", Name: "ignored"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if created || again.ID != first.ID || again.Name != "employee_create" {
		t.Fatalf("second upsert must return the stored record: created=%v %+v", created, again)
	}

	forced, created, err := s.UpsertPermission(ctx, &permission.Permission{Pattern: "api/v1/employee/create", Name: "hire"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if created || forced.ID != first.ID || forced.Name != "hire" {
		t.Fatalf("forced upsert must rename in place: created=%v %+v", created, forced)
	}
	stored, err := s.GetPermission(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Name != "hire" {
		t.Fatalf("forced name not persisted: %+v", stored)
	}

	n, err := s.CountPermissions(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 permission, got %d", n)
	}
}

func testActivePermissionsByRole(t *testing.T, s store.Store) {
	ctx := context.Background()
	clerk := createRole(t, s, "clerk")
	other := createRole(t, s, "other")
	reports := createPermission(t, s, "reports")
	archive := createPermission(t, s, "archive")
	createPermission(t, s, "payroll")

	for _, p := range []*permission.Permission{reports, archive} {
		if err := s.AttachPermission(ctx, clerk.ID, p.ID); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AttachPermission(ctx, other.ID, archive.ID); err != nil {
		t.Fatal(err)
	}

	archive.IsActive = false
	if err := s.UpdatePermission(ctx, archive); err != nil {
		t.Fatal(err)
	}

	active, err := s.ListActivePermissionsByRole(ctx, clerk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got := patterns(active); !equal(got, []string{"reports"}) {
		t.Fatalf("expected only the active grant, got %v", got)
	}

	all, err := s.ListPermissionsByRole(ctx, clerk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got := patterns(all); !equal(got, []string{"archive", "reports"}) {
		t.Fatalf("expected every grant ordered by pattern, got %v", got)
	}

	none, err := s.ListActivePermissionsByRole(ctx, other.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no active grants, got %v", patterns(none))
	}

	unknown, err := s.ListActivePermissionsByRole(ctx, id.NewRoleID())
	if err != nil {
		t.Fatal(err)
	}
	if len(unknown) != 0 {
		t.Fatalf("unknown role returned %v", patterns(unknown))
	}
}

func testAttachDetach(t *testing.T, s store.Store) {
	ctx := context.Background()
	r := createRole(t, s, "editor")
	p := createPermission(t, s, "employees/<int:id>/edit")

	for range 2 {
		if err := s.AttachPermission(ctx, r.ID, p.ID); err != nil {
			t.Fatalf("attach must be idempotent: %v", err)
		}
	}
	ids, err := s.ListRolePermissions(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != p.ID {
		t.Fatalf("expected one link, got %v", ids)
	}

	if err := s.DetachPermission(ctx, r.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	active, err := s.ListActivePermissionsByRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no grants after detach, got %v", patterns(active))
	}
}

func testSetRolePermissions(t *testing.T, s store.Store) {
	ctx := context.Background()
	r := createRole(t, s, "auditor")
	a := createPermission(t, s, "a")
	b := createPermission(t, s, "b")
	c := createPermission(t, s, "c")

	if err := s.SetRolePermissions(ctx, r.ID, []id.PermissionID{a.ID, b.ID}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRolePermissions(ctx, r.ID, []id.PermissionID{b.ID, c.ID}); err != nil {
		t.Fatal(err)
	}
	active, err := s.ListActivePermissionsByRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	got := patterns(active)
	if len(got) != 2 || !((got[0] == "b" && got[1] == "c") || (got[0] == "c" && got[1] == "b")) {
		t.Fatalf("expected grants b and c, got %v", got)
	}

	if err := s.SetRolePermissions(ctx, r.ID, nil); err != nil {
		t.Fatal(err)
	}
	active, err = s.ListActivePermissionsByRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("expected an empty set, got %v", patterns(active))
	}
}

func testDeleteRole(t *testing.T, s store.Store) {
	ctx := context.Background()
	r := createRole(t, s, "temp")
	p := createPermission(t, s, "reports")
	if err := s.AttachPermission(ctx, r.ID, p.ID); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRole(ctx, r.ID); !errors.Is(err, role.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	active, err := s.ListActivePermissionsByRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("links survived role deletion: %v", patterns(active))
	}
	if _, err := s.GetPermission(ctx, p.ID); err != nil {
		t.Fatalf("permission must survive role deletion: %v", err)
	}
}
