package permission

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/urlpath"
)

// Backend is the subset of Store that Upsert builds on.
type Backend interface {
	CreatePermission(ctx context.Context, p *Permission) error
	GetPermissionByPattern(ctx context.Context, pattern string) (*Permission, error)
	UpdatePermission(ctx context.Context, p *Permission) error
}

// Prepare fills the defaults of a permission about to be created: a
// canonical pattern, a fresh ID, a derived name and description, and
// timestamps. New permissions start active.
func Prepare(p *Permission, now time.Time) {
	p.Pattern = urlpath.Normalize(p.Pattern)
	if p.ID.IsNil() {
		p.ID = id.NewPermissionID()
	}
	if p.Name == "" {
		p.Name = DeriveName(p.Pattern)
	}
	if p.Description == "" {
		p.Description = DefaultDescription(p.Pattern)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// Upsert implements Store.UpsertPermission on top of the basic operations
// of a database backend. A concurrent insert of the same pattern is
// resolved by the unique index: the loser re-reads the winner's row.
func Upsert(ctx context.Context, b Backend, p *Permission, force bool) (*Permission, bool, error) {
	pattern := urlpath.Normalize(p.Pattern)

	existing, err := b.GetPermissionByPattern(ctx, pattern)
	switch {
	case errors.Is(err, ErrNotFound):
		created := *p
		created.IsActive = true
		Prepare(&created, time.Now().UTC())
		err = b.CreatePermission(ctx, &created)
		if err == nil {
			return &created, true, nil
		}
		if !errors.Is(err, ErrDuplicatePattern) {
			return nil, false, err
		}
		existing, err = b.GetPermissionByPattern(ctx, pattern)
		if err != nil {
			return nil, false, err
		}
	case err != nil:
		return nil, false, err
	}

	if !force {
		return existing, false, nil
	}
	ApplyForce(existing, p)
	if err := b.UpdatePermission(ctx, existing); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// ApplyForce overwrites the mutable labels of existing with those of
// incoming, deriving defaults for any left empty.
func ApplyForce(existing, incoming *Permission) {
	existing.Name = incoming.Name
	if existing.Name == "" {
		existing.Name = DeriveName(existing.Pattern)
	}
	existing.Description = incoming.Description
	if existing.Description == "" {
		existing.Description = DefaultDescription(existing.Pattern)
	}
	existing.UpdatedAt = time.Now().UTC()
}
