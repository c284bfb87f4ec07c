package api

import (
	"errors"
	"fmt"

	"github.com/xraph/forge"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/manifest"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return forge.NotFound(err.Error())
	case errors.Is(err, routeguard.ErrDuplicateRoleName),
		errors.Is(err, routeguard.ErrDuplicatePattern),
		errors.Is(err, routeguard.ErrInvalidPattern),
		errors.Is(err, routeguard.ErrInvalidRole),
		errors.Is(err, manifest.ErrInvalid):
		return forge.BadRequest(err.Error())
	case errors.Is(err, routeguard.ErrAccessDenied):
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, routeguard.ErrRoleNotFound) ||
		errors.Is(err, routeguard.ErrPermissionNotFound) ||
		errors.Is(err, routeguard.ErrCheckLogNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func parseRoleID(ctx forge.Context) (id.RoleID, error) {
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	return roleID, nil
}

func parsePermissionID(ctx forge.Context) (id.PermissionID, error) {
	permID, err := id.ParsePermissionID(ctx.Param("permissionId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid permission ID: %v", err))
	}
	return permID, nil
}

func boolPtr(s string) (*bool, error) {
	switch s {
	case "":
		return nil, nil
	case "true", "1":
		v := true
		return &v, nil
	case "false", "0":
		v := false
		return &v, nil
	}
	return nil, forge.BadRequest(fmt.Sprintf("invalid boolean %q", s))
}
