package handlers

import (
	"context"
	"errors"

	"github.com/dkovac/taskboard-api/internal/middleware"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/dkovac/taskboard-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type WorkspaceHandler struct {
	workspaceService WorkspaceServiceInterface
}

func NewWorkspaceHandler(workspaceService WorkspaceServiceInterface) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService}
}

// requireMember parses the :workspaceId param and checks the caller belongs
// to it. Returns the membership row, or writes the error response and
// returns nil.
func requireMember(c *drift.Context, ws WorkspaceServiceInterface) *models.WorkspaceMember {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return nil
	}

	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return nil
	}

	member, err := ws.GetMember(context.Background(), workspaceID, userID)
	if err != nil {
		c.Forbidden("not a member of this workspace")
		return nil
	}
	return member
}

// requireManager is requireMember plus an OWNER/ADMIN role check.
func requireManager(c *drift.Context, ws WorkspaceServiceInterface) *models.WorkspaceMember {
	member := requireMember(c, ws)
	if member == nil {
		return nil
	}
	if !member.CanManage() {
		c.Forbidden("requires admin role")
		return nil
	}
	return member
}

func (h *WorkspaceHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateWorkspaceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" || len(req.Name) > 50 {
		c.BadRequest("name must be between 1 and 50 characters")
		return
	}

	workspace, err := h.workspaceService.Create(context.Background(), req.Name, userID)
	if err != nil {
		c.InternalServerError("failed to create workspace")
		return
	}

	_ = c.JSON(201, dto.WorkspaceResponse{
		ID:          workspace.ID,
		Name:        workspace.Name,
		Role:        models.RoleOwner,
		MemberCount: workspace.MemberCount,
	})
}

func (h *WorkspaceHandler) CreatePersonal(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	workspace, err := h.workspaceService.EnsurePersonal(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to create personal workspace")
		return
	}

	_ = c.JSON(200, dto.WorkspaceResponse{
		ID:          workspace.ID,
		Name:        workspace.Name,
		Role:        models.RoleOwner,
		MemberCount: workspace.MemberCount,
	})
}

func (h *WorkspaceHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	workspaces, roles, err := h.workspaceService.GetUserWorkspaces(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to list workspaces")
		return
	}

	resp := make([]dto.WorkspaceResponse, 0, len(workspaces))
	for i, workspace := range workspaces {
		resp = append(resp, dto.WorkspaceResponse{
			ID:          workspace.ID,
			Name:        workspace.Name,
			Role:        roles[i],
			MemberCount: workspace.MemberCount,
		})
	}

	_ = c.JSON(200, resp)
}

func (h *WorkspaceHandler) Get(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	workspace, err := h.workspaceService.GetByID(context.Background(), member.WorkspaceID)
	if err != nil {
		c.NotFound("workspace not found")
		return
	}

	_ = c.JSON(200, dto.WorkspaceResponse{
		ID:          workspace.ID,
		Name:        workspace.Name,
		Role:        member.Role,
		MemberCount: workspace.MemberCount,
	})
}

func (h *WorkspaceHandler) Update(c *drift.Context) {
	member := requireManager(c, h.workspaceService)
	if member == nil {
		return
	}

	var req dto.UpdateWorkspaceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" || len(req.Name) > 50 {
		c.BadRequest("name must be between 1 and 50 characters")
		return
	}

	workspace, err := h.workspaceService.Update(context.Background(), member.WorkspaceID, req.Name)
	if err != nil {
		c.InternalServerError("failed to update workspace")
		return
	}

	_ = c.JSON(200, dto.WorkspaceResponse{
		ID:          workspace.ID,
		Name:        workspace.Name,
		Role:        member.Role,
		MemberCount: workspace.MemberCount,
	})
}

func (h *WorkspaceHandler) Delete(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	if member.Role != models.RoleOwner {
		c.Forbidden("only the owner can delete a workspace")
		return
	}

	if err := h.workspaceService.Delete(context.Background(), member.WorkspaceID); err != nil {
		c.InternalServerError("failed to delete workspace")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "workspace deleted"})
}

func (h *WorkspaceHandler) Leave(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	err := h.workspaceService.Leave(context.Background(), member.WorkspaceID, member.UserID)
	if err != nil {
		if errors.Is(err, services.ErrOwnerCannotLeave) {
			c.Forbidden("owner cannot leave their workspace")
			return
		}
		c.InternalServerError("failed to leave workspace")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "left workspace"})
}

func (h *WorkspaceHandler) GetMembers(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	members, err := h.workspaceService.GetMembers(context.Background(), member.WorkspaceID)
	if err != nil {
		c.InternalServerError("failed to list members")
		return
	}

	resp := make([]dto.WorkspaceMemberResponse, 0, len(members))
	for _, m := range members {
		item := dto.WorkspaceMemberResponse{
			ID:     m.ID,
			UserID: m.UserID,
			Role:   m.Role,
		}
		if m.User != nil {
			item.User = userResponse(m.User)
		}
		resp = append(resp, item)
	}

	_ = c.JSON(200, resp)
}

func (h *WorkspaceHandler) UpdateMemberRole(c *drift.Context) {
	member := requireManager(c, h.workspaceService)
	if member == nil {
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	var req dto.UpdateMemberRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Role != models.RoleAdmin && req.Role != models.RoleMember {
		c.BadRequest("role must be ADMIN or MEMBER")
		return
	}

	updated, err := h.workspaceService.UpdateMemberRole(context.Background(), member.WorkspaceID, targetID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			c.NotFound("member not found")
		case errors.Is(err, services.ErrLastAdmin):
			_ = c.JSON(409, map[string]string{"error": "workspace must keep at least one admin"})
		case errors.Is(err, services.ErrCannotRemoveOwner):
			c.Forbidden("cannot change the owner's role")
		default:
			c.InternalServerError("failed to update member role")
		}
		return
	}

	_ = c.JSON(200, dto.WorkspaceMemberResponse{
		ID:     updated.ID,
		UserID: updated.UserID,
		Role:   updated.Role,
	})
}

func (h *WorkspaceHandler) RemoveMember(c *drift.Context) {
	member := requireManager(c, h.workspaceService)
	if member == nil {
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	err = h.workspaceService.RemoveMember(context.Background(), member.WorkspaceID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			c.NotFound("member not found")
		case errors.Is(err, services.ErrCannotRemoveOwner):
			c.Forbidden("cannot remove the workspace owner")
		default:
			c.InternalServerError("failed to remove member")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"message": "member removed"})
}
