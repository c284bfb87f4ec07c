// Package auditlog records every authorization decision as a checklog
// entry.
package auditlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/checklog"
	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin     = (*Recorder)(nil)
	_ plugin.AfterCheck = (*Recorder)(nil)
)

// Recorder is a plugin that writes check results to a checklog.Store.
type Recorder struct {
	store       checklog.Store
	logger      *slog.Logger
	onlyDenials bool
	now         func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// OnlyDenials restricts recording to denied checks.
func OnlyDenials() Option { return func(r *Recorder) { r.onlyDenials = true } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(r *Recorder) { r.logger = l } }

// New creates a Recorder writing to s.
func New(s checklog.Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  s,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name implements plugin.Plugin.
func (r *Recorder) Name() string { return "auditlog" }

// OnAfterCheck stores one entry per decision.
func (r *Recorder) OnAfterCheck(ctx context.Context, principal, result any) error {
	res, ok := result.(*routeguard.CheckResult)
	if !ok || res == nil {
		return fmt.Errorf("auditlog: unexpected result type %T", result)
	}
	if r.onlyDenials && res.Allowed {
		return nil
	}

	e := &checklog.Entry{
		ID:             id.NewCheckLogID(),
		Path:           res.Path,
		Allowed:        res.Allowed,
		Decision:       string(res.Decision),
		Reason:         res.Reason,
		MatchedPattern: res.MatchedPattern(),
		EvalTimeNs:     res.EvalTimeNs,
		RequestIP:      routeguard.RequestIPFromContext(ctx),
		CreatedAt:      r.now(),
	}
	if p, ok := principal.(*routeguard.Principal); ok && p != nil {
		e.PrincipalID = p.ID
		if p.Role != nil {
			e.RoleID = p.Role.ID.String()
		}
	}
	if res.Cached {
		e.Metadata = map[string]any{"cached": true}
	}

	if err := r.store.CreateCheckLog(ctx, e); err != nil {
		return fmt.Errorf("auditlog: record check: %w", err)
	}
	return nil
}
