package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/routeguard/checklog"
	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
)

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:routeguard_roles"`
	ID              string         `grove:"id,pk"`
	Name            string         `grove:"name,notnull"`
	Description     string         `grove:"description"`
	IsActive        bool           `grove:"is_active,notnull"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		Metadata:    r.Metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		Name:        m.Name,
		Description: m.Description,
		IsActive:    m.IsActive,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Permission model
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel `grove:"table:routeguard_permissions"`
	ID              string         `grove:"id,pk"`
	Pattern         string         `grove:"pattern,notnull"`
	Name            string         `grove:"name,notnull"`
	Description     string         `grove:"description"`
	IsActive        bool           `grove:"is_active,notnull"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func permissionToModel(p *permission.Permission) *permissionModel {
	return &permissionModel{
		ID:          p.ID.String(),
		Pattern:     p.Pattern,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		Metadata:    p.Metadata,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func permissionFromModel(m *permissionModel) *permission.Permission {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &permission.Permission{
		ID:          pid,
		Pattern:     m.Pattern,
		Name:        m.Name,
		Description: m.Description,
		IsActive:    m.IsActive,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func permissionsFromModels(models []permissionModel) []*permission.Permission {
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result
}

// ──────────────────────────────────────────────────
// Role-Permission junction model
// ──────────────────────────────────────────────────

type rolePermissionModel struct {
	grove.BaseModel `grove:"table:routeguard_role_permissions"`
	RoleID          string `grove:"role_id,pk"`
	PermissionID    string `grove:"permission_id,pk"`
}

// ──────────────────────────────────────────────────
// Check log model
// ──────────────────────────────────────────────────

type checkLogModel struct {
	grove.BaseModel `grove:"table:routeguard_check_logs"`
	ID              string         `grove:"id,pk"`
	PrincipalID     string         `grove:"principal_id,notnull"`
	RoleID          string         `grove:"role_id,notnull"`
	Path            string         `grove:"path,notnull"`
	Allowed         bool           `grove:"allowed,notnull"`
	Decision        string         `grove:"decision,notnull"`
	Reason          string         `grove:"reason"`
	MatchedPattern  string         `grove:"matched_pattern"`
	EvalTimeNs      int64          `grove:"eval_time_ns,notnull"`
	RequestIP       string         `grove:"request_ip"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
}

func checkLogToModel(e *checklog.Entry) *checkLogModel {
	return &checkLogModel{
		ID:             e.ID.String(),
		PrincipalID:    e.PrincipalID,
		RoleID:         e.RoleID,
		Path:           e.Path,
		Allowed:        e.Allowed,
		Decision:       e.Decision,
		Reason:         e.Reason,
		MatchedPattern: e.MatchedPattern,
		EvalTimeNs:     e.EvalTimeNs,
		RequestIP:      e.RequestIP,
		Metadata:       e.Metadata,
		CreatedAt:      e.CreatedAt,
	}
}

func checkLogFromModel(m *checkLogModel) *checklog.Entry {
	clid, _ := id.ParseCheckLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &checklog.Entry{
		ID:             clid,
		PrincipalID:    m.PrincipalID,
		RoleID:         m.RoleID,
		Path:           m.Path,
		Allowed:        m.Allowed,
		Decision:       m.Decision,
		Reason:         m.Reason,
		MatchedPattern: m.MatchedPattern,
		EvalTimeNs:     m.EvalTimeNs,
		RequestIP:      m.RequestIP,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt,
	}
}
