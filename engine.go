package routeguard

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/xraph/routeguard/pattern"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/plugin"
	"github.com/xraph/routeguard/store"
	"github.com/xraph/routeguard/urlpath"
)

// Engine is the role authorization engine. It evaluates request paths
// against the permissions of the caller's role, manages roles and
// permissions in the store, and fires plugin hooks.
type Engine struct {
	store    store.Store
	cache    Cache
	patterns *pattern.Cache
	plugins  *plugin.Registry
	logger   *slog.Logger
	config   Config
}

// NewEngine creates a new routeguard engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("routeguard: store is required")
	}
	if e.patterns == nil {
		e.patterns = pattern.NewCache()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Patterns returns the shared pattern compile cache.
func (e *Engine) Patterns() *pattern.Cache { return e.patterns }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop notifies plugins of shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Check evaluates rawPath for the principal. This is the hot path.
//
// rawPath is a decoded path such as http.Request.URL.Path. It is not
// parsed further: a "?" or "#" in it is part of the path. Callers holding a
// raw request target strip the query with urlpath.StripQuery first.
//
// The only error is ErrStoreUnavailable; callers must treat it as a deny.
func (e *Engine) Check(ctx context.Context, p *Principal, rawPath string) (*CheckResult, error) {
	start := time.Now()
	path := urlpath.Normalize(rawPath)

	if e.plugins != nil {
		e.plugins.EmitBeforeCheck(ctx, p, path)
	}

	result, err := e.evaluate(ctx, p, path)
	if err != nil {
		e.logger.Error("routeguard: permission lookup failed",
			slog.String("principal", principalID(p)),
			slog.String("path", urlpath.Display(path)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	result.Path = path
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	if !result.Allowed && e.config.LogDenials {
		e.logger.Info("routeguard: access denied",
			slog.String("principal", principalID(p)),
			slog.String("path", urlpath.Display(path)),
			slog.String("decision", string(result.Decision)),
		)
	}

	if e.plugins != nil {
		e.plugins.EmitAfterCheck(ctx, p, result)
	}
	return result, nil
}

// Authorize reports whether the principal may access rawPath.
func (e *Engine) Authorize(ctx context.Context, p *Principal, rawPath string) (bool, error) {
	result, err := e.Check(ctx, p, rawPath)
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// Enforce returns an error wrapping ErrAccessDenied if the check is denied.
func (e *Engine) Enforce(ctx context.Context, p *Principal, rawPath string) error {
	result, err := e.Check(ctx, p, rawPath)
	if err != nil {
		return fmt.Errorf("routeguard check: %w", err)
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s: %s", ErrAccessDenied, result.Decision, result.Reason)
	}
	return nil
}

func (e *Engine) evaluate(ctx context.Context, p *Principal, path string) (*CheckResult, error) {
	switch {
	case p == nil:
		return &CheckResult{Decision: DecisionDenyAnonymous, Reason: "no principal"}, nil
	case p.IsSuperuser:
		return &CheckResult{Allowed: true, Decision: DecisionAllowSuperuser, Reason: "superuser"}, nil
	case p.Role == nil:
		return &CheckResult{Decision: DecisionDenyNoRole, Reason: "principal has no role"}, nil
	case !p.Role.IsActive:
		return &CheckResult{Decision: DecisionDenyInactiveRole, Reason: "role " + p.Role.Name + " is inactive"}, nil
	}

	roleID := p.Role.ID
	caching := e.cache != nil && e.config.CacheTTL > 0
	var stamp Stamp
	if caching {
		cached, s, ok := e.cache.Get(ctx, roleID, path)
		if ok {
			cached.Cached = true
			return cached, nil
		}
		stamp = s
	}

	perms, err := e.store.ListActivePermissionsByRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	// A fixed order makes the reported match independent of the backend.
	slices.SortFunc(perms, func(a, b *permission.Permission) int {
		return cmp.Compare(a.Pattern, b.Pattern)
	})
	if limit := e.config.MaxPermissionsPerRole; limit > 0 && len(perms) > limit {
		e.logger.Warn("routeguard: role exceeds permission limit",
			slog.String("role", p.Role.Name),
			slog.Int("permissions", len(perms)),
			slog.Int("limit", limit),
		)
		perms = perms[:limit]
	}

	result := &CheckResult{
		Decision: DecisionDenyNoMatch,
		Reason:   "no active permission of role " + p.Role.Name + " matches",
	}
	for _, perm := range perms {
		if !perm.IsActive {
			continue
		}
		params, ok, err := matchPermission(e.patterns, perm, path)
		if err != nil {
			e.logger.Warn("routeguard: stored pattern does not compile",
				slog.String("permission", perm.ID.String()),
				slog.String("pattern", perm.Pattern),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			result = &CheckResult{
				Allowed:           true,
				Decision:          DecisionAllow,
				Reason:            "role " + p.Role.Name + " grants " + perm.Name,
				MatchedPermission: perm,
				Params:            params,
			}
			break
		}
	}

	if caching {
		stored := *result
		stored.Path = path
		e.cache.Set(ctx, roleID, path, stamp, &stored, e.config.CacheTTL)
	}
	return result, nil
}

func principalID(p *Principal) string {
	if p == nil {
		return ""
	}
	return p.ID
}
