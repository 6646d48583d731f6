// Package events carries domain events from service operations to
// best-effort consumers (activity log, notifications). Services return
// the events they produce alongside their results; handlers hand them
// to the Dispatcher after the request's own writes have committed, so
// delivery failures never affect the success path.
package events

import (
	"github.com/google/uuid"
)

type Type string

const (
	TaskCreated   Type = "task.created"
	TaskUpdated   Type = "task.updated"
	TaskCompleted Type = "task.completed"
	TaskDeleted   Type = "task.deleted"
	UserInvited   Type = "user.invited"
	UserJoined    Type = "user.joined"
)

type Event struct {
	Type        Type
	WorkspaceID uuid.UUID
	ActorID     uuid.UUID
	EntityType  string
	EntityID    string
	Metadata    map[string]any
}
