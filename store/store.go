// Package store defines the aggregate persistence interface. The role,
// permission and checklog packages each define their own store interface;
// the composite Store composes them. Backends: Memory, SQLite, Postgres
// and MongoDB.
package store

import (
	"context"

	"github.com/xraph/routeguard/checklog"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/role"
)

// Store is the aggregate persistence interface. A single backend implements
// all of the subsystem stores.
type Store interface {
	role.Store
	permission.Store
	checklog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
