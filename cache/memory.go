// Package cache provides routeguard.Cache implementations for check
// results: an in-process map and a shared Redis cache.
package cache

import (
	"context"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/id"
)

// Compile-time interface check.
var _ routeguard.Cache = (*Memory)(nil)

// Memory is an in-memory cache with TTL-based expiration and a size cap.
//
// A global and a per-role generation counter advance on every
// invalidation; Set drops results stamped with an older generation.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int

	global uint64
	roles  map[string]uint64
}

type entry struct {
	result    *routeguard.CheckResult
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the entry time-to-live used when Set is given none.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		roles:   make(map[string]uint64),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of a cached check result and the current generation
// stamp of the role.
func (m *Memory) Get(_ context.Context, roleID id.RoleID, path string) (*routeguard.CheckResult, routeguard.Stamp, bool) {
	key := memoryKey(roleID, path)
	m.mu.RLock()
	e, ok := m.entries[key]
	stamp := m.stamp(roleID)
	m.mu.RUnlock()
	if !ok {
		return nil, stamp, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur == e {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, stamp, false
	}
	return cloneResult(e.result), stamp, true
}

// Set stores a copy of a check result unless the role was invalidated
// after stamp was taken.
func (m *Memory) Set(_ context.Context, roleID id.RoleID, path string, stamp routeguard.Stamp, result *routeguard.CheckResult, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	key := memoryKey(roleID, path)
	m.mu.Lock()
	defer m.mu.Unlock()

	if stamp == "" || stamp != m.stamp(roleID) {
		return
	}

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}

	m.entries[key] = &entry{
		result:    cloneResult(result),
		expiresAt: time.Now().Add(ttl),
	}
}

// InvalidateRole removes all cached results for a role.
func (m *Memory) InvalidateRole(_ context.Context, roleID id.RoleID) {
	prefix := roleID.String() + "|"
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[roleID.String()]++
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
}

// InvalidateAll removes every cached result.
func (m *Memory) InvalidateAll(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global++
	clear(m.entries)
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Role IDs never contain "|", so the role ID is an unambiguous key prefix.
func memoryKey(roleID id.RoleID, path string) string {
	return roleID.String() + "|" + path
}

// stamp renders the generation of roleID. Must hold a lock.
func (m *Memory) stamp(roleID id.RoleID) routeguard.Stamp {
	return routeguard.Stamp(strconv.FormatUint(m.global, 10) + "." + strconv.FormatUint(m.roles[roleID.String()], 10))
}

// cloneResult copies r deeply enough that callers cannot mutate the
// cached params or matched permission.
func cloneResult(r *routeguard.CheckResult) *routeguard.CheckResult {
	c := *r
	c.Params = maps.Clone(r.Params)
	if r.MatchedPermission != nil {
		p := *r.MatchedPermission
		p.Metadata = maps.Clone(r.MatchedPermission.Metadata)
		c.MatchedPermission = &p
	}
	return &c
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
