package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dkovac/taskboard-api/internal/database"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/google/uuid"
)

type DashboardService struct {
	db *database.DB
}

func NewDashboardService(db *database.DB) *DashboardService {
	return &DashboardService{db: db}
}

type MyDayStats struct {
	Total     int `json:"total"`
	Overdue   int `json:"overdue"`
	Today     int `json:"today"`
	NoDueDate int `json:"no_due_date"`
}

type MyDay struct {
	Tasks []models.Task `json:"tasks"`
	Stats MyDayStats    `json:"stats"`
}

// GetMyDay returns the caller's open tasks that are due by the end of their
// local day, or carry no due date at all. The timezone is an IANA name from
// the client; an unknown one falls back to UTC rather than failing the page.
func (s *DashboardService) GetMyDay(ctx context.Context, workspaceID, userID uuid.UUID, timezone string) (*MyDay, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}

	now := time.Now().In(loc)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	endOfDay := startOfDay.Add(24 * time.Hour)

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+prefixedTaskColumns("t")+`
		FROM tasks t
		WHERE t.workspace_id = $1
		  AND t.assignee_id = $2
		  AND t.status != $3
		  AND (t.due_date IS NULL OR t.due_date < $4)
		ORDER BY t.due_date NULLS LAST, t.display_order
	`, workspaceID, userID, models.TaskStatusDone, endOfDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	day := &MyDay{}
	for rows.Next() {
		var task models.Task
		if err := scanTask(rows, &task); err != nil {
			return nil, err
		}
		day.Tasks = append(day.Tasks, task)

		day.Stats.Total++
		switch {
		case task.DueDate == nil:
			day.Stats.NoDueDate++
		case task.DueDate.Before(startOfDay):
			day.Stats.Overdue++
		default:
			day.Stats.Today++
		}
	}
	return day, rows.Err()
}

func prefixedTaskColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.workspace_id, %[1]s.title, %[1]s.description, %[1]s.priority, %[1]s.status, %[1]s.due_date, %[1]s.assignee_id, %[1]s.created_by, %[1]s.display_order, %[1]s.created_at, %[1]s.updated_at`, alias)
}
