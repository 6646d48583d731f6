package handlers

import (
	"context"

	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type TeamHandler struct {
	teamService      TeamServiceInterface
	workspaceService WorkspaceServiceInterface
}

func NewTeamHandler(teamService TeamServiceInterface, workspaceService WorkspaceServiceInterface) *TeamHandler {
	return &TeamHandler{teamService: teamService, workspaceService: workspaceService}
}

func (h *TeamHandler) Overview(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	filter := services.TeamFilter{
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
		Search:   c.QueryParam("search"),
	}
	if filter.Status != "" && !models.ValidTaskStatus(filter.Status) {
		c.BadRequest("invalid status filter")
		return
	}
	if filter.Priority != "" && !models.ValidTaskPriority(filter.Priority) {
		c.BadRequest("invalid priority filter")
		return
	}
	if assignee := c.QueryParam("assignee_id"); assignee != "" {
		id, err := uuid.Parse(assignee)
		if err != nil {
			c.BadRequest("invalid assignee id")
			return
		}
		filter.AssigneeID = &id
	}

	overview, err := h.teamService.GetOverview(context.Background(), member.WorkspaceID, filter)
	if err != nil {
		c.InternalServerError("failed to build team overview")
		return
	}

	_ = c.JSON(200, overview)
}
