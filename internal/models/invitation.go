package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation lifecycle states. An expired row keeps StatusPending in the
// store; expiry is computed on read, never written back.
const (
	InvitationStatusPending  = "PENDING"
	InvitationStatusAccepted = "ACCEPTED"
	InvitationStatusRevoked  = "REVOKED"
)

type Invitation struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Token       string     `json:"token"`
	Status      string     `json:"status"`
	InvitedBy   uuid.UUID  `json:"invited_by"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
	Workspace   *Workspace `json:"workspace,omitempty"`
	Inviter     *User      `json:"inviter,omitempty"`
}

func (i *Invitation) Expired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
