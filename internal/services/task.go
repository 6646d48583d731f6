package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkovac/taskboard-api/internal/database"
	"github.com/dkovac/taskboard-api/internal/events"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/ordering"
	"github.com/google/uuid"
)

var ErrTaskNotFound = errors.New("task not found")

const taskColumns = `id, workspace_id, title, description, priority, status, due_date, assignee_id, created_by, display_order, created_at, updated_at`

type TaskService struct {
	db *database.DB
}

func NewTaskService(db *database.DB) *TaskService {
	return &TaskService{db: db}
}

type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    string
	Status      string
	DueDate     *time.Time
	AssigneeID  *uuid.UUID
}

// UpdateTaskInput applies partial updates; nil fields are untouched.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Priority      *string
	Status        *string
	DueDate       *time.Time
	ClearDue      bool
	AssigneeID    *uuid.UUID
	ClearAssignee bool
}

type TaskFilter struct {
	Status     string
	AssigneeID *uuid.UUID
}

func scanTask(row interface{ Scan(...any) error }, task *models.Task) error {
	return row.Scan(
		&task.ID, &task.WorkspaceID, &task.Title, &task.Description,
		&task.Priority, &task.Status, &task.DueDate, &task.AssigneeID,
		&task.CreatedBy, &task.DisplayOrder, &task.CreatedAt, &task.UpdatedAt,
	)
}

func (s *TaskService) Create(ctx context.Context, workspaceID, creatorID uuid.UUID, input CreateTaskInput) (*models.Task, []events.Event, error) {
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !models.ValidTaskPriority(input.Priority) {
		return nil, nil, fmt.Errorf("invalid priority %q", input.Priority)
	}
	if !models.ValidTaskStatus(input.Status) {
		return nil, nil, fmt.Errorf("invalid status %q", input.Status)
	}

	var task models.Task
	err := scanTask(s.db.Pool.QueryRow(ctx, `
		INSERT INTO tasks (workspace_id, title, description, priority, status, due_date, assignee_id, created_by, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+taskColumns+`
	`, workspaceID, input.Title, input.Description, input.Priority, input.Status,
		input.DueDate, input.AssigneeID, creatorID, models.DefaultOrderKey), &task)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create task: %w", err)
	}

	evts := []events.Event{{
		Type:        events.TaskCreated,
		WorkspaceID: workspaceID,
		ActorID:     creatorID,
		EntityType:  models.EntityTask,
		EntityID:    task.ID.String(),
		Metadata:    taskEventMetadata(&task),
	}}

	return &task, evts, nil
}

func (s *TaskService) Get(ctx context.Context, workspaceID, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := scanTask(s.db.Pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND workspace_id = $2
	`, taskID, workspaceID), &task)
	if err != nil {
		return nil, ErrTaskNotFound
	}
	return &task, nil
}

// List returns the workspace's tasks in display order. Duplicate order keys
// are possible under concurrent reordering; newest-first created_at breaks
// the tie so the listing stays stable.
func (s *TaskService) List(ctx context.Context, workspaceID uuid.UUID, filter TaskFilter) ([]models.Task, error) {
	query := `
		SELECT t.id, t.workspace_id, t.title, t.description, t.priority, t.status, t.due_date, t.assignee_id,
		       t.created_by, t.display_order, t.created_at, t.updated_at,
		       u.id, u.email, u.name, u.avatar_url
		FROM tasks t
		LEFT JOIN users u ON t.assignee_id = u.id
		WHERE t.workspace_id = $1`
	args := []any{workspaceID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND t.status = $%d", len(args))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		query += fmt.Sprintf(" AND t.assignee_id = $%d", len(args))
	}

	query += " ORDER BY t.display_order, t.created_at DESC"

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		var assigneeID *uuid.UUID
		var assigneeEmail, assigneeName *string
		var assigneeAvatar *string
		if err := rows.Scan(
			&task.ID, &task.WorkspaceID, &task.Title, &task.Description,
			&task.Priority, &task.Status, &task.DueDate, &task.AssigneeID,
			&task.CreatedBy, &task.DisplayOrder, &task.CreatedAt, &task.UpdatedAt,
			&assigneeID, &assigneeEmail, &assigneeName, &assigneeAvatar,
		); err != nil {
			return nil, err
		}
		if assigneeID != nil {
			task.Assignee = &models.User{
				ID:        *assigneeID,
				Email:     *assigneeEmail,
				Name:      *assigneeName,
				AvatarURL: assigneeAvatar,
			}
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *TaskService) Update(ctx context.Context, workspaceID, taskID, actorID uuid.UUID, input UpdateTaskInput) (*models.Task, []events.Event, error) {
	var sets []string
	var args []any
	changed := map[string]any{}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if input.Title != nil {
		addSet("title", *input.Title)
		changed["title"] = *input.Title
	}
	if input.Description != nil {
		addSet("description", *input.Description)
		changed["description"] = true
	}
	if input.Priority != nil {
		if !models.ValidTaskPriority(*input.Priority) {
			return nil, nil, fmt.Errorf("invalid priority %q", *input.Priority)
		}
		addSet("priority", *input.Priority)
		changed["priority"] = *input.Priority
	}
	if input.Status != nil {
		if !models.ValidTaskStatus(*input.Status) {
			return nil, nil, fmt.Errorf("invalid status %q", *input.Status)
		}
		addSet("status", *input.Status)
		changed["status"] = *input.Status
	}
	if input.ClearDue {
		sets = append(sets, "due_date = NULL")
		changed["due_date"] = nil
	} else if input.DueDate != nil {
		addSet("due_date", *input.DueDate)
		changed["due_date"] = input.DueDate.Format(time.RFC3339)
	}
	if input.ClearAssignee {
		sets = append(sets, "assignee_id = NULL")
		changed["assignee_id"] = nil
	} else if input.AssigneeID != nil {
		addSet("assignee_id", *input.AssigneeID)
		changed["assignee_id"] = input.AssigneeID.String()
	}

	if len(sets) == 0 {
		task, err := s.Get(ctx, workspaceID, taskID)
		return task, nil, err
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, taskID, workspaceID)
	query := fmt.Sprintf(`
		UPDATE tasks SET %s
		WHERE id = $%d AND workspace_id = $%d
		RETURNING `+taskColumns,
		strings.Join(sets, ", "), len(args)-1, len(args))

	var task models.Task
	if err := scanTask(s.db.Pool.QueryRow(ctx, query, args...), &task); err != nil {
		return nil, nil, ErrTaskNotFound
	}

	eventType := events.TaskUpdated
	if input.Status != nil && *input.Status == models.TaskStatusDone {
		eventType = events.TaskCompleted
	}

	evts := []events.Event{{
		Type:        eventType,
		WorkspaceID: workspaceID,
		ActorID:     actorID,
		EntityType:  models.EntityTask,
		EntityID:    task.ID.String(),
		Metadata:    map[string]any{"title": task.Title, "changed": changed},
	}}

	return &task, evts, nil
}

func (s *TaskService) Complete(ctx context.Context, workspaceID, taskID, actorID uuid.UUID) (*models.Task, []events.Event, error) {
	var task models.Task
	err := scanTask(s.db.Pool.QueryRow(ctx, `
		UPDATE tasks SET status = $1, updated_at = NOW()
		WHERE id = $2 AND workspace_id = $3
		RETURNING `+taskColumns+`
	`, models.TaskStatusDone, taskID, workspaceID), &task)
	if err != nil {
		return nil, nil, ErrTaskNotFound
	}

	evts := []events.Event{{
		Type:        events.TaskCompleted,
		WorkspaceID: workspaceID,
		ActorID:     actorID,
		EntityType:  models.EntityTask,
		EntityID:    task.ID.String(),
		Metadata:    map[string]any{"title": task.Title},
	}}

	return &task, evts, nil
}

func (s *TaskService) Delete(ctx context.Context, workspaceID, taskID, actorID uuid.UUID) ([]events.Event, error) {
	var title string
	err := s.db.Pool.QueryRow(ctx, `
		DELETE FROM tasks WHERE id = $1 AND workspace_id = $2
		RETURNING title
	`, taskID, workspaceID).Scan(&title)
	if err != nil {
		return nil, ErrTaskNotFound
	}

	evts := []events.Event{{
		Type:        events.TaskDeleted,
		WorkspaceID: workspaceID,
		ActorID:     actorID,
		EntityType:  models.EntityTask,
		EntityID:    taskID.String(),
		Metadata:    map[string]any{"title": title},
	}}

	return evts, nil
}

// Reorder moves a task between its new neighbours. prevKey/nextKey are the
// display orders of the surrounding tasks as the client saw them; nil means
// head or tail. Last writer wins under concurrent moves.
func (s *TaskService) Reorder(ctx context.Context, workspaceID, taskID uuid.UUID, prevKey, nextKey *string) (*models.Task, error) {
	var prev, next string
	if prevKey != nil {
		prev = *prevKey
	}
	if nextKey != nil {
		next = *nextKey
	}
	key := ordering.Midpoint(prev, next)

	var task models.Task
	err := scanTask(s.db.Pool.QueryRow(ctx, `
		UPDATE tasks SET display_order = $1, updated_at = NOW()
		WHERE id = $2 AND workspace_id = $3
		RETURNING `+taskColumns+`
	`, key, taskID, workspaceID), &task)
	if err != nil {
		return nil, ErrTaskNotFound
	}
	return &task, nil
}

func taskEventMetadata(task *models.Task) map[string]any {
	md := map[string]any{
		"title":    task.Title,
		"priority": task.Priority,
		"status":   task.Status,
	}
	if task.AssigneeID != nil {
		md["assignee_id"] = task.AssigneeID.String()
	}
	return md
}
