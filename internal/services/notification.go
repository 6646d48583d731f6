package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkovac/taskboard-api/internal/database"
	"github.com/dkovac/taskboard-api/internal/events"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/google/uuid"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationService struct {
	db *database.DB
}

func NewNotificationService(db *database.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, title, message, notifType string, link *string) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO notifications (user_id, title, message, type, link)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, title, message, notifType, link)
	return err
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, user_id, title, message, type, link, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// GetSettings returns the user's preferences, defaulting to all-off when
// the row was never created.
func (s *NotificationService) GetSettings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, email_enabled, slack_enabled
		FROM notification_settings WHERE user_id = $1
	`, userID).Scan(&settings.ID, &settings.UserID, &settings.EmailEnabled, &settings.SlackEnabled)
	if err != nil {
		return &models.NotificationSettings{UserID: userID}, nil
	}
	return &settings, nil
}

func (s *NotificationService) UpdateSettings(ctx context.Context, userID uuid.UUID, emailEnabled, slackEnabled bool) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO notification_settings (user_id, email_enabled, slack_enabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			slack_enabled = EXCLUDED.slack_enabled
		RETURNING id, user_id, email_enabled, slack_enabled
	`, userID, emailEnabled, slackEnabled).Scan(&settings.ID, &settings.UserID, &settings.EmailEnabled, &settings.SlackEnabled)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// NotificationSink turns workspace events into per-member notifications.
// The actor is skipped; nobody needs to hear about their own edits.
type NotificationSink struct {
	notifications *NotificationService
	workspaces    *WorkspaceService
}

func NewNotificationSink(notifications *NotificationService, workspaces *WorkspaceService) *NotificationSink {
	return &NotificationSink{notifications: notifications, workspaces: workspaces}
}

func (s *NotificationSink) Name() string { return "notification" }

func (s *NotificationSink) Handle(ctx context.Context, event events.Event) error {
	title, message := describeEvent(event)
	if title == "" {
		return nil
	}

	members, err := s.workspaces.GetMembers(ctx, event.WorkspaceID)
	if err != nil {
		return err
	}

	for _, member := range members {
		if member.UserID == event.ActorID {
			continue
		}
		if err := s.notifications.Notify(ctx, member.UserID, title, message, models.NotificationInfo, nil); err != nil {
			return err
		}
	}
	return nil
}

func describeEvent(event events.Event) (title, message string) {
	name, _ := event.Metadata["title"].(string)
	switch event.Type {
	case events.TaskCreated:
		return "Task created", fmt.Sprintf("New task: %s", name)
	case events.TaskCompleted:
		return "Task completed", fmt.Sprintf("Task done: %s", name)
	case events.UserJoined:
		return "New member", "Someone joined your workspace"
	}
	return "", ""
}
