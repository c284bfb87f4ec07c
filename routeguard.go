// Package routeguard decides whether a caller's role grants access to a
// request path.
//
// Permissions are path templates such as "employees/<int:id>/edit". A role
// bundles permissions; a principal carries at most one role. The engine
// normalizes the request path, loads the role's active permissions and
// grants access on the first template that matches.
//
//	eng, err := routeguard.NewEngine(
//	    routeguard.WithStore(memory.New()),
//	)
//	ok, err := eng.Authorize(ctx, &routeguard.Principal{ID: "u1", Role: manager}, "/employees/42/")
package routeguard

import (
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
)

// Principal is the authenticated caller.
type Principal struct {
	ID          string     `json:"id"`
	IsSuperuser bool       `json:"is_superuser,omitempty"`
	Role        *role.Role `json:"role,omitempty"`
}

// CheckResult is the outcome of an authorization check.
type CheckResult struct {
	Allowed  bool     `json:"allowed"`
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`

	// Path is the normalized request path that was evaluated.
	Path string `json:"path"`

	MatchedPermission *permission.Permission `json:"matched_permission,omitempty"`
	Params            map[string]string      `json:"params,omitempty"`

	EvalTimeNs int64 `json:"eval_time_ns"`
	Cached     bool  `json:"cached,omitempty"`
}

// MatchedPattern returns the pattern of the permission that granted access,
// or "" when none did.
func (r *CheckResult) MatchedPattern() string {
	if r == nil || r.MatchedPermission == nil {
		return ""
	}
	return r.MatchedPermission.Pattern
}

// Decision is the authorization outcome.
type Decision string

const (
	// DecisionAllow means an active permission of the role matched.
	DecisionAllow Decision = "allow"

	// DecisionAllowSuperuser means the principal bypasses permission checks.
	DecisionAllowSuperuser Decision = "allow_superuser"

	// DecisionDenyAnonymous means there is no principal.
	DecisionDenyAnonymous Decision = "deny_anonymous"

	// DecisionDenyNoRole means the principal holds no role.
	DecisionDenyNoRole Decision = "deny_no_role"

	// DecisionDenyInactiveRole means the principal's role is deactivated.
	DecisionDenyInactiveRole Decision = "deny_inactive_role"

	// DecisionDenyNoMatch means no active permission of the role matched.
	DecisionDenyNoMatch Decision = "deny_no_match"
)
