package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
	"github.com/xraph/routeguard/store/memory"
)

type fixture struct {
	eng     *routeguard.Engine
	manager *role.Role
	router  chi.Router
}

func newFixture(t *testing.T, eng *routeguard.Engine) *fixture {
	t.Helper()
	ctx := context.Background()
	manager := &role.Role{Name: "manager", IsActive: true}
	if err := eng.CreateRole(ctx, manager); err != nil {
		t.Fatal(err)
	}
	for _, pat := range []string{"employees", "employees/<int:id>/edit"} {
		p, _, err := eng.RegisterPermission(ctx, &permission.Permission{Pattern: pat}, false)
		if err != nil {
			t.Fatal(err)
		}
		if err := eng.AttachPermission(ctx, manager.ID, p.ID); err != nil {
			t.Fatal(err)
		}
	}

	users := map[string]*routeguard.Principal{
		"root":  {ID: "root", IsSuperuser: true},
		"alice": {ID: "alice", Role: manager},
		"bob":   {ID: "bob"},
	}
	resolve := func(r *http.Request) (*routeguard.Principal, error) {
		user := r.Header.Get("X-User")
		if user == "" {
			return nil, ErrNoPrincipal
		}
		p, ok := users[user]
		if !ok {
			return nil, errors.New("unknown user")
		}
		return p, nil
	}

	router := chi.NewRouter()
	router.Use(RequireHTTP(eng, resolve,
		WithPublicPaths(MustPublicPaths("login", "static/<path:rest>")),
		WithLogger(slog.New(slog.DiscardHandler)),
	))
	ok := func(w http.ResponseWriter, r *http.Request) {
		if p, found := routeguard.PrincipalFromContext(r.Context()); found {
			w.Header().Set("X-Principal", p.ID)
		}
		if params := ParamsFromContext(r.Context()); params != nil {
			w.Header().Set("X-Employee", params["id"])
		}
		w.WriteHeader(http.StatusOK)
	}
	router.Get("/login/", ok)
	router.Get("/static/*", ok)
	router.Get("/employees/", ok)
	router.Get("/employees/{id}/edit/", ok)
	router.Get("/payroll/", ok)

	return &fixture{eng: eng, manager: manager, router: router}
}

func newEngine(t *testing.T) *routeguard.Engine {
	t.Helper()
	eng, err := routeguard.NewEngine(
		routeguard.WithStore(memory.New()),
		routeguard.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func (f *fixture) do(user, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestRequireHTTP(t *testing.T) {
	f := newFixture(t, newEngine(t))

	tests := []struct {
		name string
		user string
		path string
		want int
	}{
		{"public without principal", "", "/login/", http.StatusOK},
		{"public nested path", "", "/static/css/site.css", http.StatusOK},
		{"anonymous", "", "/employees/", http.StatusUnauthorized},
		{"unknown user", "mallory", "/employees/", http.StatusUnauthorized},
		{"granted literal", "alice", "/employees/", http.StatusOK},
		{"granted placeholder", "alice", "/employees/42/edit/", http.StatusOK},
		{"placeholder type mismatch", "alice", "/employees/abc/edit/", http.StatusForbidden},
		{"not granted", "alice", "/payroll/", http.StatusForbidden},
		{"no role", "bob", "/employees/", http.StatusForbidden},
		{"superuser", "root", "/payroll/", http.StatusOK},
		{"query string", "alice", "/employees/?page=2", http.StatusOK},
		{"encoded question mark", "alice", "/employees%3Fpage=2", http.StatusForbidden},
		{"encoded hash", "alice", "/employees%23top", http.StatusForbidden},
		{"encoded question mark on public path", "", "/login%3Fnext=x", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(tt.user, tt.path)
			if rr.Code != tt.want {
				t.Fatalf("GET %s as %q: expected %d, got %d", tt.path, tt.user, tt.want, rr.Code)
			}
		})
	}
}

func TestRequireHTTPPropagatesPrincipalAndParams(t *testing.T) {
	f := newFixture(t, newEngine(t))

	rr := f.do("alice", "/employees/7/edit/")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-Principal"); got != "alice" {
		t.Errorf("expected principal alice, got %q", got)
	}
	if got := rr.Header().Get("X-Employee"); got != "7" {
		t.Errorf("expected employee id 7, got %q", got)
	}
}

func TestRequireHTTPDenialBody(t *testing.T) {
	f := newFixture(t, newEngine(t))

	rr := f.do("alice", "/payroll/")
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}
	if body := rr.Body.String(); body != "{\"error\":\"access denied\"}\n" {
		t.Errorf("unexpected body %q", body)
	}
}

// brokenStore fails every permission lookup.
type brokenStore struct{ *memory.Store }

func (brokenStore) ListActivePermissionsByRole(context.Context, id.RoleID) ([]*permission.Permission, error) {
	return nil, errors.New("connection refused")
}

func TestRequireHTTPFailsClosedOnStoreError(t *testing.T) {
	eng, err := routeguard.NewEngine(
		routeguard.WithStore(brokenStore{memory.New()}),
		routeguard.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, eng)

	if rr := f.do("alice", "/employees/"); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on store failure, got %d", rr.Code)
	}
	if rr := f.do("root", "/employees/"); rr.Code != http.StatusOK {
		t.Fatalf("superuser should not touch the store, got %d", rr.Code)
	}
}
