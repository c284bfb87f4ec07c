package plugin

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
)

// testPlugin implements Plugin + RoleCreated + AfterCheck + PermissionCreated.
type testPlugin struct {
	roleCreatedCalled bool
	afterCheckCalled  bool
	createdPatterns   []string
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnRoleCreated(_ context.Context, _ *role.Role) error {
	t.roleCreatedCalled = true
	return nil
}

func (t *testPlugin) OnAfterCheck(_ context.Context, _, _ any) error {
	t.afterCheckCalled = true
	return nil
}

func (t *testPlugin) OnPermissionCreated(_ context.Context, p *permission.Permission) error {
	t.createdPatterns = append(t.createdPatterns, p.Pattern)
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

type failingPlugin struct{}

func (f *failingPlugin) Name() string { return "failing" }

func (f *failingPlugin) OnBeforeCheck(_ context.Context, _ any, _ string) error {
	return errors.New("boom")
}

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	reg.EmitRoleCreated(ctx, &role.Role{ID: id.NewRoleID(), Name: "admin"})
	if !tp.roleCreatedCalled {
		t.Fatal("OnRoleCreated was not called")
	}

	reg.EmitAfterCheck(ctx, nil, nil)
	if !tp.afterCheckCalled {
		t.Fatal("OnAfterCheck was not called")
	}

	reg.EmitPermissionCreated(ctx, &permission.Permission{Pattern: "employees/<int:id>"})
	if len(tp.createdPatterns) != 1 || tp.createdPatterns[0] != "employees/<int:id>" {
		t.Fatalf("unexpected created patterns: %v", tp.createdPatterns)
	}

	// Hooks with no listeners are no-ops.
	reg.EmitBeforeCheck(ctx, nil, "")
	reg.EmitRoleDeleted(ctx, id.NewRoleID())
	reg.EmitPermissionUpdated(ctx, &permission.Permission{})
	reg.EmitPermissionAttached(ctx, id.NewRoleID(), id.NewPermissionID())
	reg.EmitPermissionDetached(ctx, id.NewRoleID(), id.NewPermissionID())
	reg.EmitShutdown(ctx)
}

func TestRegistryHookErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry(slog.New(slog.NewTextHandler(&buf, nil)))
	reg.Register(&failingPlugin{})

	reg.EmitBeforeCheck(context.Background(), nil, "reports")

	out := buf.String()
	if !strings.Contains(out, "plugin hook error") || !strings.Contains(out, "plugin=failing") {
		t.Fatalf("expected hook error to be logged, got %q", out)
	}
}

func TestNewRegistryNilLogger(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(&failingPlugin{})
	reg.EmitBeforeCheck(context.Background(), nil, "")
}
