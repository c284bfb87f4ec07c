package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/routeguard/checklog"
	"github.com/xraph/routeguard/urlpath"
)

func (a *API) registerCheckLogRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("check-logs"))

	return g.GET("/check-logs", a.listCheckLogs,
		forge.WithSummary("Query check logs"),
		forge.WithDescription("Returns recorded authorization decisions, newest first."),
		forge.WithOperationID("listCheckLogs"),
		forge.WithRequestSchema(ListCheckLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check log list", []*checklog.Entry{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listCheckLogs(ctx forge.Context, req *ListCheckLogsRequest) ([]*checklog.Entry, error) {
	allowed, err := boolPtr(req.Allowed)
	if err != nil {
		return nil, err
	}
	filter := &checklog.QueryFilter{
		PrincipalID: req.PrincipalID,
		RoleID:      req.RoleID,
		Decision:    req.Decision,
		Allowed:     allowed,
		Limit:       defaultLimit(req.Limit),
		Offset:      req.Offset,
	}
	if req.Path != "" {
		filter.Path = urlpath.Normalize(req.Path)
	}

	if req.After != "" {
		t, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest("invalid after timestamp")
		}
		filter.After = &t
	}
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest("invalid before timestamp")
		}
		filter.Before = &t
	}

	logs, err := a.eng.Store().ListCheckLogs(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return logs, ctx.JSON(http.StatusOK, logs)
}
