package handlers

import (
	"context"

	"github.com/m1z23r/drift/pkg/drift"
)

type DashboardHandler struct {
	dashboardService DashboardServiceInterface
	workspaceService WorkspaceServiceInterface
}

func NewDashboardHandler(dashboardService DashboardServiceInterface, workspaceService WorkspaceServiceInterface) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, workspaceService: workspaceService}
}

func (h *DashboardHandler) MyDay(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	day, err := h.dashboardService.GetMyDay(context.Background(), member.WorkspaceID, member.UserID, c.QueryParam("timezone"))
	if err != nil {
		c.InternalServerError("failed to build my day view")
		return
	}

	_ = c.JSON(200, day)
}
