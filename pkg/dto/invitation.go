package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token"`
}

type InvitationResponse struct {
	ID        uuid.UUID     `json:"id"`
	Email     string        `json:"email"`
	Role      string        `json:"role"`
	Status    string        `json:"status"`
	Token     string        `json:"token,omitempty"`
	ExpiresAt time.Time     `json:"expires_at"`
	CreatedAt time.Time     `json:"created_at"`
	Inviter   *UserResponse `json:"inviter,omitempty"`
}

// InvitationPreviewResponse is the public view served to a token holder
// before they sign in. It never includes the member list or the token.
type InvitationPreviewResponse struct {
	WorkspaceName string    `json:"workspace_name"`
	InviterName   string    `json:"inviter_name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	Expired       bool      `json:"expired"`
	ExpiresAt     time.Time `json:"expires_at"`
}
