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

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

func userResponse(user *models.User) dto.UserResponse {
	provider := "credentials"
	if user.Provider != nil {
		provider = *user.Provider
	}
	return dto.UserResponse{
		ID:                user.ID,
		Email:             user.Email,
		Name:              user.Name,
		AvatarURL:         user.AvatarURL,
		Provider:          provider,
		ActiveWorkspaceID: user.ActiveWorkspaceID,
	}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	user, err := h.userService.GetByID(context.Background(), userID)
	if err != nil {
		c.NotFound("user not found")
		return
	}

	_ = c.JSON(200, userResponse(user))
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	user, err := h.userService.Update(context.Background(), userID, req.Name)
	if err != nil {
		c.InternalServerError("failed to update user")
		return
	}

	_ = c.JSON(200, userResponse(user))
}

func (h *UserHandler) SetActiveWorkspace(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.SetActiveWorkspaceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.WorkspaceID == uuid.Nil {
		c.BadRequest("workspace_id is required")
		return
	}

	err := h.userService.SetActiveWorkspace(context.Background(), userID, req.WorkspaceID)
	if err != nil {
		if errors.Is(err, services.ErrNotMember) {
			c.Forbidden("not a member of this workspace")
			return
		}
		c.InternalServerError("failed to set active workspace")
		return
	}

	user, err := h.userService.GetByID(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to load user")
		return
	}

	_ = c.JSON(200, userResponse(user))
}
