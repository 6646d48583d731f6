package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ActionTaskCreated   = "TASK_CREATED"
	ActionTaskUpdated   = "TASK_UPDATED"
	ActionTaskCompleted = "TASK_COMPLETED"
	ActionTaskDeleted   = "TASK_DELETED"
	ActionUserInvited   = "USER_INVITED"
	ActionUserJoined    = "USER_JOINED"
	ActionUserRemoved   = "USER_REMOVED"
)

const (
	EntityTask      = "TASK"
	EntityUser      = "USER"
	EntityWorkspace = "WORKSPACE"
)

type ActivityLog struct {
	ID          uuid.UUID       `json:"id"`
	WorkspaceID uuid.UUID       `json:"workspace_id"`
	UserID      uuid.UUID       `json:"user_id"`
	ActionType  string          `json:"action_type"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	Metadata    json.RawMessage `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
	User        *User           `json:"user,omitempty"`
}
