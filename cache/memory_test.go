package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/id"
)

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	roleID := id.NewRoleID()
	result := &routeguard.CheckResult{Allowed: true, Decision: routeguard.DecisionAllow}

	if _, _, ok := c.Get(ctx, roleID, "employees/1"); ok {
		t.Fatal("expected cache miss")
	}

	put(ctx, c, roleID, "employees/1", result, time.Minute)
	got, _, ok := c.Get(ctx, roleID, "employees/1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Allowed {
		t.Fatal("expected allowed")
	}

	if _, _, ok := c.Get(ctx, id.NewRoleID(), "employees/1"); ok {
		t.Fatal("other role must miss")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	roleID := id.NewRoleID()

	put(ctx, c, roleID, "a", &routeguard.CheckResult{Allowed: true}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, _, ok := c.Get(ctx, roleID, "a"); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheDefaultTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Millisecond))
	roleID := id.NewRoleID()

	put(ctx, c, roleID, "a", &routeguard.CheckResult{Allowed: true}, 0)
	time.Sleep(5 * time.Millisecond)

	if _, _, ok := c.Get(ctx, roleID, "a"); ok {
		t.Fatal("expected the default TTL to apply")
	}
}

func TestMemoryCacheInvalidateRole(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	r1, r2 := id.NewRoleID(), id.NewRoleID()

	put(ctx, c, r1, "a", &routeguard.CheckResult{Allowed: true}, time.Minute)
	put(ctx, c, r1, "b", &routeguard.CheckResult{Allowed: false}, time.Minute)
	put(ctx, c, r2, "a", &routeguard.CheckResult{Allowed: true}, time.Minute)

	c.InvalidateRole(ctx, r1)

	if _, _, ok := c.Get(ctx, r1, "a"); ok {
		t.Fatal("r1 a should be invalidated")
	}
	if _, _, ok := c.Get(ctx, r1, "b"); ok {
		t.Fatal("r1 b should be invalidated")
	}
	if _, _, ok := c.Get(ctx, r2, "a"); !ok {
		t.Fatal("r2 a should still be cached")
	}

	c.InvalidateAll(ctx)
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))
	roleID := id.NewRoleID()

	for i := 0; i < 5; i++ {
		put(ctx, c, roleID, fmt.Sprintf("doc/%d", i), &routeguard.CheckResult{Allowed: true}, time.Minute)
	}

	if size := c.Len(); size > 2 {
		t.Fatalf("expected max 2 entries, got %d", size)
	}
}

func TestMemoryCacheWithEngine(t *testing.T) {
	ctx := context.Background()
	eng, r := newEngineWithRole(t, NewMemory())

	p := &routeguard.Principal{ID: "u1", Role: r}
	if _, err := eng.Check(ctx, p, "/employees/9/"); err != nil {
		t.Fatal(err)
	}
	res, err := eng.Check(ctx, p, "/employees/9/")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cached || !res.Allowed || res.Params["id"] != "9" {
		t.Fatalf("expected a cached allow, got %+v", res)
	}
}
