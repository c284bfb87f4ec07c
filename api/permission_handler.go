package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/routeguard/manifest"
	"github.com/xraph/routeguard/permission"
)

func (a *API) registerPermissionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("permissions"))

	if err := g.POST("/permissions", a.registerPermission,
		forge.WithSummary("Register permission"),
		forge.WithDescription("Registers a path template. Registering an existing pattern returns the stored record unless force is set."),
		forge.WithOperationID("registerPermission"),
		forge.WithRequestSchema(RegisterPermissionRequest{}),
		forge.WithCreatedResponse(&permission.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/permissions/sync", a.syncPermissions,
		forge.WithSummary("Sync permissions"),
		forge.WithDescription("Registers every protected route of a manifest."),
		forge.WithOperationID("syncPermissions"),
		forge.WithRequestSchema(SyncRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Sync report", manifest.Report{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/permissions/:permissionId", a.getPermission,
		forge.WithSummary("Get permission"),
		forge.WithOperationID("getPermission"),
		forge.WithResponseSchema(http.StatusOK, "Permission details", &permission.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/permissions/:permissionId/activate", a.activatePermission,
		forge.WithSummary("Activate permission"),
		forge.WithOperationID("activatePermission"),
		forge.WithResponseSchema(http.StatusOK, "Permission details", &permission.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/permissions/:permissionId/deactivate", a.deactivatePermission,
		forge.WithSummary("Deactivate permission"),
		forge.WithDescription("Inactive permissions never match. Permissions are never deleted."),
		forge.WithOperationID("deactivatePermission"),
		forge.WithResponseSchema(http.StatusOK, "Permission details", &permission.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/permissions", a.listPermissions,
		forge.WithSummary("List permissions"),
		forge.WithOperationID("listPermissions"),
		forge.WithRequestSchema(ListPermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Permission list", ListResponse[*permission.Permission]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) registerPermission(ctx forge.Context, req *RegisterPermissionRequest) (*permission.Permission, error) {
	p := &permission.Permission{
		Pattern:     req.Pattern,
		Name:        req.Name,
		Description: req.Description,
		Metadata:    req.Metadata,
	}

	stored, created, err := a.eng.RegisterPermission(ctx.Context(), p, req.Force)
	if err != nil {
		return nil, mapError(err)
	}

	if created {
		return stored, ctx.JSON(http.StatusCreated, stored)
	}
	return stored, ctx.JSON(http.StatusOK, stored)
}

func (a *API) syncPermissions(ctx forge.Context, req *SyncRequest) (*manifest.Report, error) {
	report, err := manifest.Sync(ctx.Context(), a.eng, &req.Manifest, manifest.SyncOptions{
		DryRun: req.DryRun,
		Force:  req.Force,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return report, ctx.JSON(http.StatusOK, report)
}

func (a *API) getPermission(ctx forge.Context, _ *GetPermissionRequest) (*permission.Permission, error) {
	permID, err := parsePermissionID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := a.eng.Store().GetPermission(ctx.Context(), permID)
	if err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) activatePermission(ctx forge.Context, _ *GetPermissionRequest) (*permission.Permission, error) {
	return a.setActive(ctx, true)
}

func (a *API) deactivatePermission(ctx forge.Context, _ *GetPermissionRequest) (*permission.Permission, error) {
	return a.setActive(ctx, false)
}

func (a *API) setActive(ctx forge.Context, active bool) (*permission.Permission, error) {
	permID, err := parsePermissionID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := a.eng.SetPermissionActive(ctx.Context(), permID, active)
	if err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) listPermissions(ctx forge.Context, req *ListPermissionsRequest) (*ListResponse[*permission.Permission], error) {
	active, err := boolPtr(req.Active)
	if err != nil {
		return nil, err
	}
	filter := &permission.ListFilter{
		IsActive: active,
		Search:   req.Search,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	perms, err := a.eng.Store().ListPermissions(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.eng.Store().CountPermissions(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*permission.Permission]{Items: perms, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}
