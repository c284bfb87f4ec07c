package cache

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
	"github.com/xraph/routeguard/store/memory"
)

// midReadStore runs onRead once, right after the first permission lookup
// returns, to simulate a grant change racing an evaluation.
type midReadStore struct {
	*memory.Store
	once   sync.Once
	onRead func()
}

func (s *midReadStore) ListActivePermissionsByRole(ctx context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	perms, err := s.Store.ListActivePermissionsByRole(ctx, roleID)
	s.once.Do(func() {
		if s.onRead != nil {
			s.onRead()
		}
	})
	return perms, err
}

func checkStaleResultDropped(t *testing.T, c routeguard.Cache, change func(context.Context, *routeguard.Engine, id.RoleID, id.PermissionID) error) {
	t.Helper()
	ctx := context.Background()
	s := &midReadStore{Store: memory.New()}
	eng, err := routeguard.NewEngine(
		routeguard.WithStore(s),
		routeguard.WithCache(c),
		routeguard.WithConfig(routeguard.Config{CacheTTL: time.Hour}),
		routeguard.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		t.Fatal(err)
	}
	r := &role.Role{Name: "analyst", IsActive: true}
	if err := eng.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	perm, _, err := eng.RegisterPermission(ctx, &permission.Permission{Pattern: "reports"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.AttachPermission(ctx, r.ID, perm.ID); err != nil {
		t.Fatal(err)
	}

	s.onRead = func() {
		if err := change(ctx, eng, r.ID, perm.ID); err != nil {
			t.Error(err)
		}
	}

	p := &routeguard.Principal{ID: "u1", Role: r}
	first, err := eng.Check(ctx, p, "/reports/")
	if err != nil {
		t.Fatal(err)
	}
	if !first.Allowed {
		t.Fatalf("the evaluation that raced the change should still see the old grant, got %+v", first)
	}

	second, err := eng.Check(ctx, p, "/reports/")
	if err != nil {
		t.Fatal(err)
	}
	if second.Allowed || second.Cached {
		t.Fatalf("expected a fresh deny after the change, got %+v", second)
	}
}

func deactivate(ctx context.Context, eng *routeguard.Engine, _ id.RoleID, permID id.PermissionID) error {
	_, err := eng.SetPermissionActive(ctx, permID, false)
	return err
}

func detach(ctx context.Context, eng *routeguard.Engine, roleID id.RoleID, permID id.PermissionID) error {
	return eng.DetachPermission(ctx, roleID, permID)
}

func TestMemoryCacheDropsResultComputedBeforeDeactivation(t *testing.T) {
	checkStaleResultDropped(t, NewMemory(), deactivate)
}

func TestMemoryCacheDropsResultComputedBeforeDetach(t *testing.T) {
	checkStaleResultDropped(t, NewMemory(), detach)
}

func TestRedisCacheDropsResultComputedBeforeDeactivation(t *testing.T) {
	c, _ := newTestRedis(t)
	checkStaleResultDropped(t, c, deactivate)
}

func TestRedisCacheDropsResultComputedBeforeDetach(t *testing.T) {
	c, _ := newTestRedis(t)
	checkStaleResultDropped(t, c, detach)
}

func TestMemoryCacheSetRequiresCurrentStamp(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	roleID := id.NewRoleID()

	_, stamp, ok := c.Get(ctx, roleID, "a")
	if ok {
		t.Fatal("expected miss")
	}
	c.InvalidateRole(ctx, roleID)
	c.Set(ctx, roleID, "a", stamp, &routeguard.CheckResult{Allowed: true}, time.Minute)
	if _, _, ok := c.Get(ctx, roleID, "a"); ok {
		t.Fatal("result stamped before InvalidateRole was stored")
	}

	_, stamp, _ = c.Get(ctx, roleID, "a")
	c.InvalidateAll(ctx)
	c.Set(ctx, roleID, "a", stamp, &routeguard.CheckResult{Allowed: true}, time.Minute)
	if _, _, ok := c.Get(ctx, roleID, "a"); ok {
		t.Fatal("result stamped before InvalidateAll was stored")
	}

	c.Set(ctx, roleID, "a", "", &routeguard.CheckResult{Allowed: true}, time.Minute)
	if _, _, ok := c.Get(ctx, roleID, "a"); ok {
		t.Fatal("empty stamp was accepted")
	}

	// Another role's invalidation leaves the stamp valid.
	_, stamp, _ = c.Get(ctx, roleID, "a")
	c.InvalidateRole(ctx, id.NewRoleID())
	c.Set(ctx, roleID, "a", stamp, &routeguard.CheckResult{Allowed: true}, time.Minute)
	if _, _, ok := c.Get(ctx, roleID, "a"); !ok {
		t.Fatal("expected hit")
	}
}

func TestMemoryCacheHandsOutCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	roleID := id.NewRoleID()
	perm := &permission.Permission{Pattern: "employees/<int:id>", Name: "employees"}

	_, stamp, _ := c.Get(ctx, roleID, "employees/1")
	c.Set(ctx, roleID, "employees/1", stamp, &routeguard.CheckResult{
		Allowed:           true,
		MatchedPermission: perm,
		Params:            map[string]string{"id": "1"},
	}, time.Minute)
	perm.Name = "changed"

	got, _, _ := c.Get(ctx, roleID, "employees/1")
	got.Params["id"] = "2"
	got.MatchedPermission.Pattern = "other"

	again, _, ok := c.Get(ctx, roleID, "employees/1")
	if !ok {
		t.Fatal("expected hit")
	}
	if again.Params["id"] != "1" || again.MatchedPermission.Pattern != "employees/<int:id>" || again.MatchedPermission.Name != "employees" {
		t.Fatalf("cached entry was mutated through a caller: %+v %+v", again, again.MatchedPermission)
	}
}
