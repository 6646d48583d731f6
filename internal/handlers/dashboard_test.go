package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkovac/taskboard-api/internal/middleware"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/dkovac/taskboard-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDashboardHandler_MyDay_Success(t *testing.T) {
	mockDashboardService := new(testutil.MockDashboardService)
	mockWorkspaceService := new(testutil.MockWorkspaceService)
	handler := NewDashboardHandler(mockDashboardService, mockWorkspaceService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	email := "test@example.com"
	workspaceID := uuid.New()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.RoleMember,
	}
	day := &services.MyDay{
		Tasks: []models.Task{
			{ID: uuid.New(), WorkspaceID: workspaceID, Title: "Overdue one", Status: models.TaskStatusTodo, Priority: models.TaskPriorityHigh, DisplayOrder: "a"},
		},
		Stats: services.MyDayStats{Total: 1, Overdue: 1},
	}

	mockWorkspaceService.On("GetMember", mock.Anything, workspaceID, userID).Return(member, nil)
	mockDashboardService.On("GetMyDay", mock.Anything, workspaceID, userID, "Europe/Berlin").Return(day, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/workspaces/:workspaceId/my-day", handler.MyDay)

	token := generateTestToken(t, jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodGet,
		"/workspaces/"+workspaceID.String()+"/my-day?timezone=Europe/Berlin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response services.MyDay
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, 1, response.Stats.Total)
	assert.Equal(t, 1, response.Stats.Overdue)
	require.Len(t, response.Tasks, 1)

	mockDashboardService.AssertExpectations(t)
	mockWorkspaceService.AssertExpectations(t)
}

func TestTeamHandler_Overview_Success(t *testing.T) {
	mockTeamService := new(testutil.MockTeamService)
	mockWorkspaceService := new(testutil.MockWorkspaceService)
	handler := NewTeamHandler(mockTeamService, mockWorkspaceService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	email := "test@example.com"
	workspaceID := uuid.New()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.RoleMember,
	}
	overview := &services.TeamOverview{
		Tasks: []models.Task{
			{ID: uuid.New(), WorkspaceID: workspaceID, Title: "Ship release", Status: models.TaskStatusInProgress, Priority: models.TaskPriorityHigh, DisplayOrder: "a"},
		},
		Workload: []services.WorkloadStats{
			{AssigneeName: "Unassigned", Total: 1, InProgress: 1},
		},
	}

	mockWorkspaceService.On("GetMember", mock.Anything, workspaceID, userID).Return(member, nil)
	mockTeamService.On("GetOverview", mock.Anything, workspaceID,
		services.TeamFilter{Status: models.TaskStatusInProgress}).Return(overview, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/workspaces/:workspaceId/team/overview", handler.Overview)

	token := generateTestToken(t, jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodGet,
		"/workspaces/"+workspaceID.String()+"/team/overview?status=IN_PROGRESS", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response services.TeamOverview
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	require.Len(t, response.Workload, 1)
	assert.Equal(t, "Unassigned", response.Workload[0].AssigneeName)

	mockTeamService.AssertExpectations(t)
	mockWorkspaceService.AssertExpectations(t)
}

func TestTeamHandler_Overview_InvalidPriorityFilter(t *testing.T) {
	mockTeamService := new(testutil.MockTeamService)
	mockWorkspaceService := new(testutil.MockWorkspaceService)
	handler := NewTeamHandler(mockTeamService, mockWorkspaceService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	email := "test@example.com"
	workspaceID := uuid.New()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.RoleMember,
	}

	mockWorkspaceService.On("GetMember", mock.Anything, workspaceID, userID).Return(member, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/workspaces/:workspaceId/team/overview", handler.Overview)

	token := generateTestToken(t, jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodGet,
		"/workspaces/"+workspaceID.String()+"/team/overview?priority=URGENT", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid priority filter")

	mockWorkspaceService.AssertExpectations(t)
}
