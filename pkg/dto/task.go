package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Status      string     `json:"status,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
}

// UpdateTaskRequest distinguishes "field absent" from "field set to null"
// for due date and assignee via the explicit clear flags.
type UpdateTaskRequest struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Priority      *string    `json:"priority,omitempty"`
	Status        *string    `json:"status,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	ClearDueDate  bool       `json:"clear_due_date,omitempty"`
	AssigneeID    *uuid.UUID `json:"assignee_id,omitempty"`
	ClearAssignee bool       `json:"clear_assignee,omitempty"`
}

type ReorderTaskRequest struct {
	PrevKey *string `json:"prev_key,omitempty"`
	NextKey *string `json:"next_key,omitempty"`
}

type TaskResponse struct {
	ID           uuid.UUID     `json:"id"`
	WorkspaceID  uuid.UUID     `json:"workspace_id"`
	Title        string        `json:"title"`
	Description  *string       `json:"description,omitempty"`
	Priority     string        `json:"priority"`
	Status       string        `json:"status"`
	DueDate      *time.Time    `json:"due_date,omitempty"`
	AssigneeID   *uuid.UUID    `json:"assignee_id,omitempty"`
	Assignee     *UserResponse `json:"assignee,omitempty"`
	CreatedBy    uuid.UUID     `json:"created_by"`
	DisplayOrder string        `json:"display_order"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
