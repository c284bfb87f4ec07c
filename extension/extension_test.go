package extension

import (
	"testing"

	"github.com/xraph/routeguard/store/memory"
)

func TestNewDefaults(t *testing.T) {
	e := New()
	if e.config.BasePath != "/routeguard" {
		t.Fatalf("expected default base path, got %q", e.config.BasePath)
	}
	if e.Name() != ExtensionName || e.Engine() != nil {
		t.Fatal("unexpected initial state")
	}
}

func TestOptions(t *testing.T) {
	e := New(
		WithStore(memory.New()),
		WithPublicPaths("login"),
		WithPublicPaths("static/<path:rest>"),
		WithDisableRoutes(),
		WithDisableMigrate(),
	)
	if len(e.engineOpts) != 1 {
		t.Fatalf("expected one engine option, got %d", len(e.engineOpts))
	}
	if got := e.config.PublicPaths; len(got) != 2 || got[1] != "static/<path:rest>" {
		t.Fatalf("unexpected public paths %v", got)
	}
	if !e.config.DisableRoutes || !e.config.DisableMigrate {
		t.Fatal("expected routes and migrations disabled")
	}
}

func TestWithConfigReplacesDefaults(t *testing.T) {
	e := New(WithConfig(Config{PublicPaths: []string{"login"}}))
	if e.config.BasePath != "" {
		t.Fatalf("expected empty base path, got %q", e.config.BasePath)
	}
}

func TestUninitializedLifecycle(t *testing.T) {
	e := New()
	if err := e.Start(t.Context()); err == nil {
		t.Fatal("expected Start to fail before Register")
	}
	if err := e.Stop(t.Context()); err != nil {
		t.Fatalf("Stop should be a no-op, got %v", err)
	}
	if err := e.Health(t.Context()); err == nil {
		t.Fatal("expected Health to fail before Register")
	}
}
