package routeguard

import (
	"context"
	"time"

	"github.com/xraph/routeguard/id"
)

// Stamp identifies the cache generation a lookup observed. An empty stamp
// never matches a generation.
type Stamp string

// Cache provides caching for check results of active roles. Keys are the
// role ID and the normalized request path.
//
// Get hands out a stamp of the current generation and Set only stores a
// result when no invalidation happened since that stamp was taken, so a
// result computed from data that changed mid-evaluation is dropped.
type Cache interface {
	// Get returns a cached check result, if available, and the stamp of the
	// generation it looked in. The returned result is owned by the caller.
	Get(ctx context.Context, roleID id.RoleID, path string) (*CheckResult, Stamp, bool)

	// Set stores a check result for ttl if the generation is still stamp.
	Set(ctx context.Context, roleID id.RoleID, path string, stamp Stamp, result *CheckResult, ttl time.Duration)

	// InvalidateRole removes all cached results for a role.
	InvalidateRole(ctx context.Context, roleID id.RoleID)

	// InvalidateAll removes every cached result.
	InvalidateAll(ctx context.Context)
}
