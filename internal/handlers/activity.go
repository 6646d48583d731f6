package handlers

import (
	"context"
	"strconv"

	"github.com/dkovac/taskboard-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type ActivityHandler struct {
	activityService  ActivityServiceInterface
	workspaceService WorkspaceServiceInterface
}

func NewActivityHandler(activityService ActivityServiceInterface, workspaceService WorkspaceServiceInterface) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, workspaceService: workspaceService}
}

func (h *ActivityHandler) List(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	entries, err := h.activityService.List(context.Background(), member.WorkspaceID, limit, offset)
	if err != nil {
		c.InternalServerError("failed to list activity")
		return
	}

	resp := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		item := dto.ActivityResponse{
			ID:         entry.ID,
			ActionType: entry.ActionType,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Metadata:   entry.Metadata,
			CreatedAt:  entry.CreatedAt,
		}
		if entry.User != nil {
			item.User = userResponse(entry.User)
		}
		resp = append(resp, item)
	}

	_ = c.JSON(200, resp)
}
