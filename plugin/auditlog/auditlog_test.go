package auditlog

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/checklog"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
	"github.com/xraph/routeguard/store/memory"
)

func setup(t *testing.T, opts ...Option) (*routeguard.Engine, *memory.Store, *role.Role) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	logger := slog.New(slog.DiscardHandler)

	eng, err := routeguard.NewEngine(
		routeguard.WithStore(st),
		routeguard.WithLogger(logger),
		routeguard.WithPlugin(New(st, opts...)),
	)
	if err != nil {
		t.Fatal(err)
	}
	r := &role.Role{Name: "clerk", IsActive: true}
	if err := eng.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	p, _, err := eng.RegisterPermission(ctx, &permission.Permission{Pattern: "reports"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.AttachPermission(ctx, r.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	return eng, st, r
}

func TestRecorderWritesEveryDecision(t *testing.T) {
	ctx := routeguard.WithRequestIP(context.Background(), "10.0.0.7")
	eng, st, r := setup(t)
	alice := &routeguard.Principal{ID: "alice", Role: r}

	if _, err := eng.Check(ctx, alice, "/reports/"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Check(ctx, alice, "/payroll/"); err != nil {
		t.Fatal(err)
	}

	entries, err := st.ListCheckLogs(ctx, &checklog.QueryFilter{PrincipalID: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	allowed := true
	granted, err := st.ListCheckLogs(ctx, &checklog.QueryFilter{Allowed: &allowed})
	if err != nil {
		t.Fatal(err)
	}
	if len(granted) != 1 {
		t.Fatalf("expected 1 allowed entry, got %d", len(granted))
	}
	e := granted[0]
	if e.Path != "reports" || e.MatchedPattern != "reports" {
		t.Errorf("unexpected entry path=%q pattern=%q", e.Path, e.MatchedPattern)
	}
	if e.RoleID != r.ID.String() {
		t.Errorf("expected role %s, got %s", r.ID, e.RoleID)
	}
	if e.RequestIP != "10.0.0.7" {
		t.Errorf("expected request ip 10.0.0.7, got %q", e.RequestIP)
	}
	if e.Decision != string(routeguard.DecisionAllow) {
		t.Errorf("expected decision allow, got %q", e.Decision)
	}
}

func TestRecorderOnlyDenials(t *testing.T) {
	ctx := context.Background()
	eng, st, r := setup(t, OnlyDenials())
	bob := &routeguard.Principal{ID: "bob", Role: r}

	for _, path := range []string{"/reports/", "/payroll/", "/payroll/2024/"} {
		if _, err := eng.Check(ctx, bob, path); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := eng.Check(ctx, nil, "/reports/"); err != nil {
		t.Fatal(err)
	}

	n, err := st.CountCheckLogs(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 denial entries, got %d", n)
	}

	anon, err := st.ListCheckLogs(ctx, &checklog.QueryFilter{Decision: string(routeguard.DecisionDenyAnonymous)})
	if err != nil {
		t.Fatal(err)
	}
	if len(anon) != 1 || anon[0].PrincipalID != "" {
		t.Fatalf("expected one anonymous entry, got %+v", anon)
	}
}

type brokenStore struct{ checklog.Store }

func (brokenStore) CreateCheckLog(context.Context, *checklog.Entry) error {
	return errors.New("disk full")
}

func TestRecorderReportsStoreErrors(t *testing.T) {
	rec := New(brokenStore{})
	err := rec.OnAfterCheck(context.Background(), nil, &routeguard.CheckResult{Decision: routeguard.DecisionDenyAnonymous})
	if err == nil {
		t.Fatal("expected error from failing store")
	}

	if err := rec.OnAfterCheck(context.Background(), nil, "not a result"); err == nil {
		t.Fatal("expected error for unexpected result type")
	}
}
