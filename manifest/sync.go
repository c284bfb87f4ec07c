package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/routeguard/pattern"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/urlpath"
)

// Registrar is the permission registry a manifest is synced into.
// *routeguard.Engine implements it.
type Registrar interface {
	RegisterPermission(ctx context.Context, p *permission.Permission, force bool) (*permission.Permission, bool, error)
	GetPermissionByPattern(ctx context.Context, raw string) (*permission.Permission, error)
}

// SyncOptions controls a sync run.
type SyncOptions struct {
	// DryRun reports what would happen without writing.
	DryRun bool `json:"dry_run"`
	// Force overwrites the name and description of existing permissions.
	Force bool `json:"force"`
}

// Action is the outcome of one route.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionExisting  Action = "existing"
	ActionPublic    Action = "public"
	ActionExcluded  Action = "excluded"
	ActionDuplicate Action = "duplicate"
	ActionFailed    Action = "failed"
)

// Outcome records what sync did with one route.
type Outcome struct {
	Pattern string `json:"pattern"`
	Name    string `json:"name,omitempty"`
	Action  Action `json:"action"`
	Error   string `json:"error,omitempty"`
}

// Report summarizes a sync run. In a dry run the counts describe what
// would have happened.
type Report struct {
	DryRun   bool      `json:"dry_run"`
	Created  int       `json:"created"`
	Updated  int       `json:"updated"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	Outcomes []Outcome `json:"outcomes"`
}

// Total is the number of routes processed.
func (r *Report) Total() int { return len(r.Outcomes) }

func (r *Report) add(o Outcome) {
	switch o.Action {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	case ActionFailed:
		r.Failed++
	default:
		r.Skipped++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Sync registers every protected route of m. A route that fails does not
// stop the run; the error is returned only when the registrar itself
// becomes unusable (context cancelled).
func Sync(ctx context.Context, reg Registrar, m *Manifest, opts SyncOptions) (*Report, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	report := &Report{DryRun: opts.DryRun, Outcomes: make([]Outcome, 0, len(m.Routes))}
	exclude := m.excluded()
	seen := make(map[string]struct{}, len(m.Routes))

	for _, rt := range m.Routes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		canonical := urlpath.Normalize(rt.Pattern)
		out := Outcome{Pattern: canonical, Name: rt.Name}

		switch {
		case rt.Public:
			out.Action = ActionPublic
		case isExcluded(canonical, exclude):
			out.Action = ActionExcluded
		default:
			if _, dup := seen[canonical]; dup {
				out.Action = ActionDuplicate
				break
			}
			seen[canonical] = struct{}{}
			if _, err := pattern.Compile(canonical); err != nil {
				out.Action, out.Error = ActionFailed, err.Error()
				break
			}
			p := &permission.Permission{Pattern: canonical, Name: rt.Name, Description: rt.Description}
			if opts.DryRun {
				out = plan(ctx, reg, p, opts.Force, out)
			} else {
				out = apply(ctx, reg, p, opts.Force, out)
			}
		}
		report.add(out)
	}
	return report, nil
}

func isExcluded(canonical string, exclude map[string]struct{}) bool {
	segs := urlpath.Segments(canonical)
	if len(segs) == 0 {
		return false
	}
	_, ok := exclude[segs[0]]
	return ok
}

func apply(ctx context.Context, reg Registrar, p *permission.Permission, force bool, out Outcome) Outcome {
	stored, created, err := reg.RegisterPermission(ctx, p, force)
	switch {
	case err != nil:
		out.Action, out.Error = ActionFailed, err.Error()
	case created:
		out.Action, out.Name = ActionCreated, stored.Name
	case force:
		out.Action, out.Name = ActionUpdated, stored.Name
	default:
		out.Action, out.Name = ActionExisting, stored.Name
	}
	return out
}

func plan(ctx context.Context, reg Registrar, p *permission.Permission, force bool, out Outcome) Outcome {
	existing, err := reg.GetPermissionByPattern(ctx, p.Pattern)
	switch {
	case errors.Is(err, permission.ErrNotFound):
		out.Action = ActionCreated
		if out.Name == "" {
			out.Name = permission.DeriveName(p.Pattern)
		}
	case err != nil:
		out.Action, out.Error = ActionFailed, fmt.Sprintf("lookup: %v", err)
	case force:
		out.Action = ActionUpdated
		if out.Name == "" {
			out.Name = permission.DeriveName(p.Pattern)
		}
	default:
		out.Action, out.Name = ActionExisting, existing.Name
	}
	return out
}
