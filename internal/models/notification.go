package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationInfo    = "INFO"
	NotificationWarning = "WARNING"
	NotificationSuccess = "SUCCESS"
	NotificationError   = "ERROR"
)

type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Link      *string   `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationSettings struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	EmailEnabled bool      `json:"email_enabled"`
	SlackEnabled bool      `json:"slack_enabled"`
}
