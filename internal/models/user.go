package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	PasswordHash      *string    `json:"-"`
	AvatarURL         *string    `json:"avatar_url,omitempty"`
	Provider          *string    `json:"provider,omitempty"`
	ProviderID        *string    `json:"-"`
	ActiveWorkspaceID *uuid.UUID `json:"active_workspace_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
