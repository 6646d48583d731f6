package services

import (
	"context"
	"fmt"

	"github.com/dkovac/taskboard-api/internal/database"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/google/uuid"
)

type TeamService struct {
	db *database.DB
}

func NewTeamService(db *database.DB) *TeamService {
	return &TeamService{db: db}
}

type TeamFilter struct {
	AssigneeID *uuid.UUID
	Status     string
	Priority   string
	Search     string
}

type WorkloadStats struct {
	AssigneeID   *uuid.UUID `json:"assignee_id,omitempty"`
	AssigneeName string     `json:"assignee_name"`
	Total        int        `json:"total"`
	Done         int        `json:"done"`
	InProgress   int        `json:"in_progress"`
	Todo         int        `json:"todo"`
}

type TeamOverview struct {
	Tasks    []models.Task   `json:"tasks"`
	Workload []WorkloadStats `json:"workload"`
}

// GetOverview lists the workspace's tasks under the given filters alongside
// per-assignee workload counters. Search matches title or description,
// case-insensitively. Unassigned tasks land in an "Unassigned" bucket.
func (s *TeamService) GetOverview(ctx context.Context, workspaceID uuid.UUID, filter TeamFilter) (*TeamOverview, error) {
	query := `
		SELECT t.id, t.workspace_id, t.title, t.description, t.priority, t.status, t.due_date, t.assignee_id,
		       t.created_by, t.display_order, t.created_at, t.updated_at,
		       u.id, u.email, u.name, u.avatar_url
		FROM tasks t
		LEFT JOIN users u ON t.assignee_id = u.id
		WHERE t.workspace_id = $1`
	args := []any{workspaceID}

	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		query += fmt.Sprintf(" AND t.assignee_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND t.status = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(" AND t.priority = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (t.title ILIKE $%d OR t.description ILIKE $%d)", len(args), len(args))
	}

	query += " ORDER BY t.display_order, t.created_at DESC"

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overview := &TeamOverview{}
	byAssignee := map[string]*WorkloadStats{}
	var order []string

	for rows.Next() {
		var task models.Task
		var assigneeID *uuid.UUID
		var assigneeEmail, assigneeName, assigneeAvatar *string
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
		overview.Tasks = append(overview.Tasks, task)

		key := "unassigned"
		name := "Unassigned"
		if task.AssigneeID != nil {
			key = task.AssigneeID.String()
			if task.Assignee != nil {
				name = task.Assignee.Name
			}
		}

		stats, ok := byAssignee[key]
		if !ok {
			stats = &WorkloadStats{AssigneeID: task.AssigneeID, AssigneeName: name}
			byAssignee[key] = stats
			order = append(order, key)
		}

		stats.Total++
		switch task.Status {
		case models.TaskStatusDone:
			stats.Done++
		case models.TaskStatusInProgress:
			stats.InProgress++
		default:
			stats.Todo++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, key := range order {
		overview.Workload = append(overview.Workload, *byAssignee[key])
	}
	return overview, nil
}
