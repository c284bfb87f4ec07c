package manifest

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/store/memory"
)

func newEngine(t *testing.T) *routeguard.Engine {
	t.Helper()
	eng, err := routeguard.NewEngine(
		routeguard.WithStore(memory.New()),
		routeguard.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)
	return eng
}

func actions(r *Report) map[string]Action {
	out := make(map[string]Action, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out[o.Pattern] = o.Action
	}
	return out
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	m := &Manifest{Routes: []Route{
		{Pattern: "/"},
		{Pattern: "/api/v1/employee/create/"},
		{Pattern: "employees/<int:id>/edit", Name: "employee_edit"},
		{Pattern: "//employees//<int:id>/edit/"},
		{Pattern: "login", Public: true},
		{Pattern: "static/<path:rest>"},
		{Pattern: "files/<blob:name>"},
	}}

	report, err := Sync(ctx, eng, m, SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, map[string]Action{
		"":                        ActionCreated,
		"api/v1/employee/create":  ActionCreated,
		"employees/<int:id>/edit": ActionDuplicate,
		"login":                   ActionPublic,
		"static/<path:rest>":      ActionExcluded,
		"files/<blob:name>":       ActionFailed,
	}, actions(report))
	assert.Equal(t, 3, report.Created)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 7, report.Total())

	p, err := eng.GetPermissionByPattern(ctx, "/api/v1/employee/create/")
	require.NoError(t, err)
	assert.Equal(t, "employee_create", p.Name)
	assert.True(t, p.IsActive)

	root, err := eng.GetPermissionByPattern(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "root", root.Name)

	edit, err := eng.GetPermissionByPattern(ctx, "employees/<int:id>/edit")
	require.NoError(t, err)
	assert.Equal(t, "employee_edit", edit.Name)

	_, err = eng.GetPermissionByPattern(ctx, "static/<path:rest>")
	assert.ErrorIs(t, err, permission.ErrNotFound)
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	m := &Manifest{Routes: []Route{{Pattern: "reports"}, {Pattern: "reports/<slug:kind>"}}}

	_, err := Sync(ctx, eng, m, SyncOptions{})
	require.NoError(t, err)

	again, err := Sync(ctx, eng, m, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 2, again.Skipped)
	for _, o := range again.Outcomes {
		assert.Equal(t, ActionExisting, o.Action)
	}

	n, err := eng.Store().CountPermissions(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestSyncForceRenames(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	_, err := Sync(ctx, eng, &Manifest{Routes: []Route{{Pattern: "reports"}}}, SyncOptions{})
	require.NoError(t, err)

	renamed := &Manifest{Routes: []Route{{Pattern: "reports", Name: "report_list"}}}
	report, err := Sync(ctx, eng, renamed, SyncOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	p, err := eng.GetPermissionByPattern(ctx, "reports")
	require.NoError(t, err)
	assert.Equal(t, "report_list", p.Name)
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	_, _, err := eng.RegisterPermission(ctx, &permission.Permission{Pattern: "reports", Name: "reports_view"}, false)
	require.NoError(t, err)

	m := &Manifest{Exclude: []string{}, Routes: []Route{
		{Pattern: "reports"},
		{Pattern: "admin/users"},
	}}

	report, err := Sync(ctx, eng, m, SyncOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, map[string]Action{
		"reports":     ActionExisting,
		"admin/users": ActionCreated,
	}, actions(report))
	assert.Equal(t, "admin_users", report.Outcomes[1].Name)

	_, err = eng.GetPermissionByPattern(ctx, "admin/users")
	assert.ErrorIs(t, err, permission.ErrNotFound)

	forced, err := Sync(ctx, eng, m, SyncOptions{DryRun: true, Force: true})
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, forced.Outcomes[0].Action)

	p, err := eng.GetPermissionByPattern(ctx, "reports")
	require.NoError(t, err)
	assert.Equal(t, "reports_view", p.Name)
}

func TestSyncStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Sync(ctx, newEngine(t), &Manifest{Routes: []Route{{Pattern: "a"}}}, SyncOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
