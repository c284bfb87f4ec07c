// Package checklog defines the authorization decision audit Entry.
package checklog

import (
	"errors"
	"time"

	"github.com/xraph/routeguard/id"
)

// ErrNotFound is returned by stores when an entry does not exist.
var ErrNotFound = errors.New("routeguard: check log not found")

// Entry records one authorization decision.
type Entry struct {
	ID             id.CheckLogID  `json:"id" db:"id"`
	PrincipalID    string         `json:"principal_id" db:"principal_id"`
	RoleID         string         `json:"role_id,omitempty" db:"role_id"`
	Path           string         `json:"path" db:"path"`
	Allowed        bool           `json:"allowed" db:"allowed"`
	Decision       string         `json:"decision" db:"decision"`
	Reason         string         `json:"reason,omitempty" db:"reason"`
	MatchedPattern string         `json:"matched_pattern,omitempty" db:"matched_pattern"`
	EvalTimeNs     int64          `json:"eval_time_ns" db:"eval_time_ns"`
	RequestIP      string         `json:"request_ip,omitempty" db:"request_ip"`
	Metadata       map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying check logs. Results are
// ordered newest first.
type QueryFilter struct {
	PrincipalID string     `json:"principal_id,omitempty"`
	RoleID      string     `json:"role_id,omitempty"`
	Path        string     `json:"path,omitempty"`
	Decision    string     `json:"decision,omitempty"`
	Allowed     *bool      `json:"allowed,omitempty"`
	After       *time.Time `json:"after,omitempty"`
	Before      *time.Time `json:"before,omitempty"`
	Limit       int        `json:"limit,omitempty"`
	Offset      int        `json:"offset,omitempty"`
}

// Match reports whether e passes the filter, ignoring pagination.
func (f *QueryFilter) Match(e *Entry) bool {
	if f == nil {
		return true
	}
	switch {
	case f.PrincipalID != "" && e.PrincipalID != f.PrincipalID,
		f.RoleID != "" && e.RoleID != f.RoleID,
		f.Path != "" && e.Path != f.Path,
		f.Decision != "" && e.Decision != f.Decision,
		f.Allowed != nil && e.Allowed != *f.Allowed,
		f.After != nil && !e.CreatedAt.After(*f.After),
		f.Before != nil && !e.CreatedAt.Before(*f.Before):
		return false
	}
	return true
}
