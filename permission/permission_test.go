package permission

import (
	"testing"
	"time"
)

func TestDeriveName(t *testing.T) {
	tests := []struct {
		pattern, want string
	}{
		{"api/v1/employee/create/", "employee_create"},
		{"/api/v2/reports", "reports"},
		{"/", "root"},
		{"", "root"},
		{"///", "root"},
		{"api/v1", "api_v1"},
		{"api/users", "api_users"},
		{"api/version/users", "api_version_users"},
		{"dashboard", "dashboard"},
		{"employees/<int:id>/edit/", "employees_<int:id>_edit"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := DeriveName(tt.pattern); got != tt.want {
				t.Errorf("DeriveName(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &Permission{Pattern: "/api/v1/leads//<int:id>/"}
	Prepare(p, now)

	if p.ID.IsNil() {
		t.Fatal("expected an ID")
	}
	if p.Pattern != "api/v1/leads/<int:id>" {
		t.Fatalf("pattern = %q", p.Pattern)
	}
	if p.Name != "leads_<int:id>" {
		t.Fatalf("name = %q", p.Name)
	}
	if p.Description != "Permission for endpoint: /api/v1/leads/<int:id>" {
		t.Fatalf("description = %q", p.Description)
	}
	if !p.CreatedAt.Equal(now) || !p.UpdatedAt.Equal(now) {
		t.Fatal("timestamps not set")
	}

	keep := &Permission{Pattern: "x", Name: "custom", Description: "mine"}
	Prepare(keep, now)
	if keep.Name != "custom" || keep.Description != "mine" {
		t.Fatalf("explicit labels overwritten: %+v", keep)
	}
}

func TestListFilterMatch(t *testing.T) {
	active, inactive := true, false
	p := &Permission{Pattern: "employees/<int:id>", Name: "Employee Detail", IsActive: true}

	var nilFilter *ListFilter
	if !nilFilter.Match(p) {
		t.Error("nil filter must match everything")
	}
	if !(&ListFilter{IsActive: &active}).Match(p) {
		t.Error("active filter should match")
	}
	if (&ListFilter{IsActive: &inactive}).Match(p) {
		t.Error("inactive filter should not match")
	}
	if !(&ListFilter{Search: "employee"}).Match(p) {
		t.Error("search on name/pattern should match")
	}
	if (&ListFilter{Search: "invoice"}).Match(p) {
		t.Error("unrelated search should not match")
	}
}
