package dto

import "github.com/google/uuid"

type UserResponse struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	AvatarURL         *string    `json:"avatar_url,omitempty"`
	Provider          string     `json:"provider"`
	ActiveWorkspaceID *uuid.UUID `json:"active_workspace_id,omitempty"`
}

type UpdateUserRequest struct {
	Name string `json:"name"`
}

type SetActiveWorkspaceRequest struct {
	WorkspaceID uuid.UUID `json:"workspace_id"`
}

type NotificationSettingsRequest struct {
	EmailEnabled bool `json:"email_enabled"`
	SlackEnabled bool `json:"slack_enabled"`
}

type NotificationSettingsResponse struct {
	EmailEnabled bool `json:"email_enabled"`
	SlackEnabled bool `json:"slack_enabled"`
}
