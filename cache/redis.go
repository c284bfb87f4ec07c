package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/id"
)

// Compile-time interface check.
var _ routeguard.Cache = (*Redis)(nil)

// Redis is a check result cache shared by every engine pointed at the same
// Redis server.
//
// Invalidation bumps version counters instead of deleting keys: entries
// carry the global and per-role versions they were written under, so a
// bump orphans them and they age out through their TTL.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithKeyPrefix sets the key namespace. Defaults to "routeguard:check:".
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithRedisTTL sets the entry time-to-live used when Set is given none.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithLogger sets the logger used for Redis errors.
func WithLogger(l *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = l }
}

// NewRedis creates a cache on top of an existing client.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: "routeguard:check:",
		ttl:    5 * time.Minute,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns a cached check result. Redis errors count as misses. The
// stamp carries the versions the lookup read.
func (r *Redis) Get(ctx context.Context, roleID id.RoleID, path string) (*routeguard.CheckResult, routeguard.Stamp, bool) {
	stamp, err := r.versions(ctx, roleID)
	if err != nil {
		r.warn("versions", err)
		return nil, "", false
	}
	payload, err := r.client.Get(ctx, r.entryKey(stamp, roleID, path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, stamp, false
	}
	if err != nil {
		r.warn("get", err)
		return nil, stamp, false
	}
	var result routeguard.CheckResult
	if err := json.Unmarshal(payload, &result); err != nil {
		r.warn("decode", err)
		return nil, stamp, false
	}
	return &result, stamp, true
}

// Set stores a check result for ttl under the versions in stamp. A result
// stamped before an invalidation lands under an orphaned key.
func (r *Redis) Set(ctx context.Context, roleID id.RoleID, path string, stamp routeguard.Stamp, result *routeguard.CheckResult, ttl time.Duration) {
	if stamp == "" {
		return
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	payload, err := json.Marshal(result)
	if err != nil {
		r.warn("encode", err)
		return
	}
	if err := r.client.Set(ctx, r.entryKey(stamp, roleID, path), payload, ttl).Err(); err != nil {
		r.warn("set", err)
	}
}

// InvalidateRole orphans every cached result of a role.
func (r *Redis) InvalidateRole(ctx context.Context, roleID id.RoleID) {
	if err := r.client.Incr(ctx, r.roleVersionKey(roleID)).Err(); err != nil {
		r.warn("invalidate role", err)
	}
}

// InvalidateAll orphans every cached result.
func (r *Redis) InvalidateAll(ctx context.Context) {
	if err := r.client.Incr(ctx, r.globalVersionKey()).Err(); err != nil {
		r.warn("invalidate all", err)
	}
}

func (r *Redis) globalVersionKey() string { return r.prefix + "version" }

func (r *Redis) roleVersionKey(roleID id.RoleID) string {
	return r.prefix + "role:" + roleID.String() + ":version"
}

// versions reads the global and role counters as a stamp.
func (r *Redis) versions(ctx context.Context, roleID id.RoleID) (routeguard.Stamp, error) {
	vals, err := r.client.MGet(ctx, r.globalVersionKey(), r.roleVersionKey(roleID)).Result()
	if err != nil {
		return "", err
	}
	return routeguard.Stamp("g" + version(vals[0]) + ":r" + version(vals[1])), nil
}

func (r *Redis) entryKey(stamp routeguard.Stamp, roleID id.RoleID, path string) string {
	return r.prefix + roleID.String() + ":" + string(stamp) + ":" + path
}

// version renders an MGET value; a missing counter is version 0.
func version(v any) string {
	s, ok := v.(string)
	if !ok {
		return "0"
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return "0"
	}
	return s
}

func (r *Redis) warn(op string, err error) {
	r.logger.Warn("routeguard: redis cache error",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
