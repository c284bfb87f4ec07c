package api

import (
	"errors"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/urlpath"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Check a path"),
		forge.WithDescription("Evaluates whether a caller with the given role may access the path."),
		forge.WithOperationID("check"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce a path"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("enforce"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", CheckResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	resp, err := a.evaluate(ctx, req)
	if errors.Is(err, routeguard.ErrStoreUnavailable) {
		return nil, unavailable(ctx, err)
	}
	if err != nil {
		return nil, err
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	resp, err := a.evaluate(ctx, req)
	if errors.Is(err, routeguard.ErrStoreUnavailable) {
		return nil, unavailable(ctx, err)
	}
	if err != nil {
		return nil, err
	}
	if !resp.Allowed {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) evaluate(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	p, err := a.principal(ctx, req)
	if err != nil {
		return nil, err
	}
	result, err := a.eng.Check(ctx.Context(), p, urlpath.StripQuery(req.Path))
	if err != nil {
		if errors.Is(err, routeguard.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, mapError(err)
	}
	return toCheckResponse(result), nil
}

func (a *API) principal(ctx forge.Context, req *CheckRequest) (*routeguard.Principal, error) {
	p := &routeguard.Principal{ID: req.PrincipalID, IsSuperuser: req.IsSuperuser}
	if req.RoleID == "" {
		return p, nil
	}
	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest("invalid role_id: " + err.Error())
	}
	r, err := a.eng.Store().GetRole(ctx.Context(), roleID)
	if err != nil {
		return nil, mapError(err)
	}
	p.Role = r
	return p, nil
}

func toCheckResponse(r *routeguard.CheckResult) *CheckResponse {
	resp := &CheckResponse{
		Allowed:    r.Allowed,
		Decision:   string(r.Decision),
		Reason:     r.Reason,
		Path:       urlpath.Display(r.Path),
		Params:     r.Params,
		Cached:     r.Cached,
		EvalTimeNs: r.EvalTimeNs,
	}
	if m := r.MatchedPermission; m != nil {
		resp.MatchedPattern = m.Pattern
		resp.MatchedID = m.ID.String()
	}
	return resp
}

// unavailable answers a check the store could not evaluate with 503.
func unavailable(ctx forge.Context, err error) error {
	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
}
