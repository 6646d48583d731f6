package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dkovac/taskboard-api/internal/events"
	"github.com/dkovac/taskboard-api/internal/handlers"
	"github.com/dkovac/taskboard-api/internal/middleware"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/dkovac/taskboard-api/pkg/dto"
	"github.com/dkovac/taskboard-api/tests/testutil"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiApp wires real services over the test database into a drift app with
// the same route layout as the server binary.
func apiApp(tdb *testutil.TestDB, dispatcher *events.Dispatcher) http.Handler {
	userService := services.NewUserService(tdb.DB)
	workspaceService := services.NewWorkspaceService(tdb.DB)
	taskService := services.NewTaskService(tdb.DB)
	activityService := services.NewActivityService(tdb.DB)

	userHandler := handlers.NewUserHandler(userService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService)
	taskHandler := handlers.NewTaskHandler(taskService, workspaceService, dispatcher)
	activityHandler := handlers.NewActivityHandler(activityService, workspaceService)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	api := app.Group("/api/v1")
	protected := api.Group("")
	protected.Use(middleware.Auth(testutil.TestJWTService()))

	protected.Get("/users/me", userHandler.GetMe)
	protected.Post("/workspaces", workspaceHandler.Create)
	protected.Get("/workspaces", workspaceHandler.List)
	protected.Post("/workspaces/:workspaceId/tasks", taskHandler.Create)
	protected.Get("/workspaces/:workspaceId/tasks", taskHandler.List)
	protected.Post("/workspaces/:workspaceId/tasks/:taskId/complete", taskHandler.Complete)
	protected.Get("/workspaces/:workspaceId/activity", activityHandler.List)

	return app
}

func TestAPI_Integration_TaskFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)

	activityService := services.NewActivityService(tdb.DB)
	dispatcher := events.NewDispatcher(services.NewActivitySink(activityService))
	go dispatcher.Run()

	client := testutil.NewHTTPTestClient(t, apiApp(tdb, dispatcher))

	user := fixtures.CreateUser(t, testutil.WithEmail("flow@example.com"), testutil.WithName("Flow"))
	auth := map[string]string{
		"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, user.ID, user.Email)),
	}

	rec := client.GET("/api/v1/users/me", auth)
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.AssertJSON(t, rec, map[string]interface{}{
		"email": "flow@example.com",
		"name":  "Flow",
	})

	rec = client.POST("/api/v1/workspaces", dto.CreateWorkspaceRequest{Name: "Flow Team"}, auth)
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var workspace dto.WorkspaceResponse
	testutil.ParseJSON(t, rec, &workspace)
	assert.Equal(t, models.RoleOwner, workspace.Role)

	base := fmt.Sprintf("/api/v1/workspaces/%s", workspace.ID)

	rec = client.POST(base+"/tasks", dto.CreateTaskRequest{Title: "Ship the board"}, auth)
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var task dto.TaskResponse
	testutil.ParseJSON(t, rec, &task)
	assert.Equal(t, models.TaskStatusTodo, task.Status)

	rec = client.POST(fmt.Sprintf("%s/tasks/%s/complete", base, task.ID), nil, auth)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var completed dto.TaskResponse
	testutil.ParseJSON(t, rec, &completed)
	assert.Equal(t, models.TaskStatusDone, completed.Status)

	rec = client.GET(base+"/tasks", auth)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var tasks []dto.TaskResponse
	testutil.ParseJSON(t, rec, &tasks)
	require.Len(t, tasks, 1)

	// Drain the dispatcher so both events have reached the activity log
	dispatcher.Close()

	rec = client.GET(base+"/activity", auth)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var feed []dto.ActivityResponse
	testutil.ParseJSON(t, rec, &feed)
	require.Len(t, feed, 2)
	assert.Equal(t, models.ActionTaskCompleted, feed[0].ActionType)
	assert.Equal(t, models.ActionTaskCreated, feed[1].ActionType)
}

func TestAPI_Integration_RejectsOutsiders(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)

	dispatcher := events.NewDispatcher()
	go dispatcher.Run()
	t.Cleanup(dispatcher.Close)

	client := testutil.NewHTTPTestClient(t, apiApp(tdb, dispatcher))

	owner := fixtures.CreateUser(t)
	outsider := fixtures.CreateUser(t)
	ws := fixtures.CreateWorkspace(t, owner)

	rec := client.GET(fmt.Sprintf("/api/v1/workspaces/%s/tasks", ws.ID), nil)
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)

	outsiderAuth := map[string]string{
		"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, outsider.ID, outsider.Email)),
	}
	rec = client.GET(fmt.Sprintf("/api/v1/workspaces/%s/tasks", ws.ID), outsiderAuth)
	testutil.AssertStatus(t, rec, http.StatusForbidden)
}
