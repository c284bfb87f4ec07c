package cache

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
	"github.com/xraph/routeguard/store/memory"
)

// newEngineWithRole builds an engine using c and a role granted
// "employees/<int:id>".
func newEngineWithRole(t *testing.T, c routeguard.Cache) (*routeguard.Engine, *role.Role) {
	t.Helper()
	ctx := context.Background()
	eng, err := routeguard.NewEngine(
		routeguard.WithStore(memory.New()),
		routeguard.WithCache(c),
		routeguard.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		t.Fatal(err)
	}
	r := &role.Role{Name: "manager", IsActive: true}
	if err := eng.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	p, _, err := eng.RegisterPermission(ctx, &permission.Permission{Pattern: "employees/<int:id>"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.AttachPermission(ctx, r.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	return eng, r
}

// put stores result under the generation current at call time.
func put(ctx context.Context, c routeguard.Cache, roleID id.RoleID, path string, result *routeguard.CheckResult, ttl time.Duration) {
	_, stamp, _ := c.Get(ctx, roleID, path)
	c.Set(ctx, roleID, path, stamp, result, ttl)
}
