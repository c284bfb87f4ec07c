package checklog

import (
	"testing"
	"time"
)

func TestQueryFilterMatch(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := &Entry{
		PrincipalID: "alice",
		RoleID:      "role_123",
		Path:        "employees/7/edit",
		Allowed:     false,
		Decision:    "deny_no_match",
		CreatedAt:   base,
	}
	yes, no := true, false
	before, after := base.Add(-time.Minute), base.Add(time.Minute)

	tests := []struct {
		name   string
		filter *QueryFilter
		want   bool
	}{
		{"nil filter", nil, true},
		{"empty filter", &QueryFilter{}, true},
		{"principal", &QueryFilter{PrincipalID: "alice"}, true},
		{"other principal", &QueryFilter{PrincipalID: "bob"}, false},
		{"role", &QueryFilter{RoleID: "role_123"}, true},
		{"path", &QueryFilter{Path: "employees/7/edit"}, true},
		{"other path", &QueryFilter{Path: "employees"}, false},
		{"decision", &QueryFilter{Decision: "allow"}, false},
		{"denied", &QueryFilter{Allowed: &no}, true},
		{"allowed", &QueryFilter{Allowed: &yes}, false},
		{"inside window", &QueryFilter{After: &before, Before: &after}, true},
		{"after is exclusive", &QueryFilter{After: &base}, false},
		{"before is exclusive", &QueryFilter{Before: &base}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(e); got != tt.want {
				t.Fatalf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
