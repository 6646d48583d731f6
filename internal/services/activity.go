package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkovac/taskboard-api/internal/database"
	"github.com/dkovac/taskboard-api/internal/events"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/google/uuid"
)

type ActivityService struct {
	db *database.DB
}

func NewActivityService(db *database.DB) *ActivityService {
	return &ActivityService{db: db}
}

func (s *ActivityService) Log(ctx context.Context, workspaceID, userID uuid.UUID, actionType, entityType, entityID string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO activity_logs (workspace_id, user_id, action_type, entity_type, entity_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, workspaceID, userID, actionType, entityType, entityID, raw)
	return err
}

// List returns a page of workspace activity, newest first, with the acting
// user joined in.
func (s *ActivityService) List(ctx context.Context, workspaceID uuid.UUID, limit, offset int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT a.id, a.workspace_id, a.user_id, a.action_type, a.entity_type, a.entity_id, a.metadata, a.created_at,
		       u.id, u.email, u.name, u.avatar_url
		FROM activity_logs a
		JOIN users u ON a.user_id = u.id
		WHERE a.workspace_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`, workspaceID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ActivityLog
	for rows.Next() {
		var entry models.ActivityLog
		var user models.User
		if err := rows.Scan(
			&entry.ID, &entry.WorkspaceID, &entry.UserID, &entry.ActionType,
			&entry.EntityType, &entry.EntityID, &entry.Metadata, &entry.CreatedAt,
			&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		); err != nil {
			return nil, err
		}
		entry.User = &user
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ActivitySink records dispatched events in the activity log.
type ActivitySink struct {
	activity *ActivityService
}

func NewActivitySink(activity *ActivityService) *ActivitySink {
	return &ActivitySink{activity: activity}
}

func (s *ActivitySink) Name() string { return "activity" }

func (s *ActivitySink) Handle(ctx context.Context, event events.Event) error {
	return s.activity.Log(ctx, event.WorkspaceID, event.ActorID,
		actionForEvent(event.Type), event.EntityType, event.EntityID, event.Metadata)
}

func actionForEvent(t events.Type) string {
	switch t {
	case events.TaskCreated:
		return models.ActionTaskCreated
	case events.TaskUpdated:
		return models.ActionTaskUpdated
	case events.TaskCompleted:
		return models.ActionTaskCompleted
	case events.TaskDeleted:
		return models.ActionTaskDeleted
	case events.UserInvited:
		return models.ActionUserInvited
	case events.UserJoined:
		return models.ActionUserJoined
	}
	return string(t)
}
