package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
	"github.com/xraph/routeguard/store/memory"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestCollectorRecordsDecisions(t *testing.T) {
	ctx := context.Background()
	col := New()
	eng, err := routeguard.NewEngine(
		routeguard.WithStore(memory.New()),
		routeguard.WithLogger(slog.New(slog.DiscardHandler)),
		routeguard.WithPlugin(col),
	)
	if err != nil {
		t.Fatal(err)
	}

	r := &role.Role{Name: "viewer", IsActive: true}
	if err := eng.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	p, _, err := eng.RegisterPermission(ctx, &permission.Permission{Pattern: "dashboard"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.AttachPermission(ctx, r.ID, p.ID); err != nil {
		t.Fatal(err)
	}

	viewer := &routeguard.Principal{ID: "v", Role: r}
	for _, path := range []string{"/dashboard/", "/dashboard/", "/settings/"} {
		if _, err := eng.Check(ctx, viewer, path); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := eng.Check(ctx, nil, "/dashboard/"); err != nil {
		t.Fatal(err)
	}

	body := scrape(t, col)
	for _, want := range []string{
		`routeguard_checks_total{decision="allow"} 2`,
		`routeguard_checks_total{decision="deny_no_match"} 1`,
		`routeguard_checks_total{decision="deny_anonymous"} 1`,
		`routeguard_check_duration_seconds_bucket{allowed="true"`,
		`routeguard_permissions_registered_total 1`,
		`routeguard_grant_changes_total{op="attach"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics to contain %q, got:\n%s", want, body)
		}
	}
}

func TestCollectorIgnoresForeignResults(t *testing.T) {
	col := New()
	if err := col.OnAfterCheck(context.Background(), nil, "nope"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(scrape(t, col), "routeguard_checks_total{") {
		t.Fatal("expected no check samples")
	}
}
