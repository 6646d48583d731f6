package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkovac/taskboard-api/internal/events"
	"github.com/dkovac/taskboard-api/internal/middleware"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/dkovac/taskboard-api/pkg/dto"
	"github.com/dkovac/taskboard-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type invitationTestEnv struct {
	invitations *testutil.MockInvitationService
	workspaces  *testutil.MockWorkspaceService
	users       *testutil.MockUserService
	emails      *testutil.MockEmailService
	dispatcher  *testutil.RecordingDispatcher
	handler     *InvitationHandler
	jwtSvc      *services.JWTService
}

func setupInvitationTest(t *testing.T) *invitationTestEnv {
	t.Helper()
	env := &invitationTestEnv{
		invitations: new(testutil.MockInvitationService),
		workspaces:  new(testutil.MockWorkspaceService),
		users:       new(testutil.MockUserService),
		emails:      new(testutil.MockEmailService),
		dispatcher:  new(testutil.RecordingDispatcher),
		jwtSvc:      newTestJWTService(),
	}
	env.handler = NewInvitationHandler(
		env.invitations,
		env.workspaces,
		env.users,
		env.emails,
		env.dispatcher,
		"http://localhost:3000",
	)
	return env
}

func TestInvitationHandler_Create_Success(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "admin@example.com"
	workspaceID := uuid.New()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.RoleAdmin,
	}
	invitation := &models.Invitation{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Email:       "invitee@example.com",
		Role:        models.RoleMember,
		Token:       "abc123token",
		Status:      models.InvitationStatusPending,
		InvitedBy:   userID,
		ExpiresAt:   time.Now().Add(7 * 24 * time.Hour),
	}
	evts := []events.Event{{
		Type:        events.UserInvited,
		WorkspaceID: workspaceID,
		ActorID:     userID,
	}}

	env.workspaces.On("GetMember", mock.Anything, workspaceID, userID).Return(member, nil)
	env.users.On("GetByEmail", mock.Anything, "invitee@example.com").Return(nil, pgx.ErrNoRows)
	env.invitations.On("Issue", mock.Anything, workspaceID, userID, "invitee@example.com", models.RoleMember).
		Return(invitation, evts, nil)
	env.workspaces.On("GetByID", mock.Anything, workspaceID).
		Return(&models.Workspace{ID: workspaceID, Name: "Acme"}, nil)
	env.users.On("GetByID", mock.Anything, userID).
		Return(&models.User{ID: userID, Email: email, Name: "Admin"}, nil)
	env.emails.On("SendWorkspaceInvitation", "invitee@example.com", "Acme", "Admin",
		"http://localhost:3000/invitations/abc123token").Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Post("/workspaces/:workspaceId/invitations", env.handler.Create)

	body := dto.CreateInvitationRequest{Email: "invitee@example.com"}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPost, "/workspaces/"+workspaceID.String()+"/invitations", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.InvitationResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, invitation.ID, response.ID)
	assert.Equal(t, "invitee@example.com", response.Email)
	assert.Equal(t, "abc123token", response.Token)
	assert.Equal(t, models.InvitationStatusPending, response.Status)

	require.Len(t, env.dispatcher.Events, 1)
	assert.Equal(t, events.UserInvited, env.dispatcher.Events[0].Type)

	env.invitations.AssertExpectations(t)
	env.emails.AssertExpectations(t)
}

func TestInvitationHandler_Create_MemberForbidden(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "member@example.com"
	workspaceID := uuid.New()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.RoleMember,
	}

	env.workspaces.On("GetMember", mock.Anything, workspaceID, userID).Return(member, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Post("/workspaces/:workspaceId/invitations", env.handler.Create)

	body := dto.CreateInvitationRequest{Email: "invitee@example.com"}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPost, "/workspaces/"+workspaceID.String()+"/invitations", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "requires admin role")
	assert.Empty(t, env.dispatcher.Events)
}

func TestInvitationHandler_Create_Duplicate(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "admin@example.com"
	workspaceID := uuid.New()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.RoleOwner,
	}

	env.workspaces.On("GetMember", mock.Anything, workspaceID, userID).Return(member, nil)
	env.users.On("GetByEmail", mock.Anything, "invitee@example.com").Return(nil, pgx.ErrNoRows)
	env.invitations.On("Issue", mock.Anything, workspaceID, userID, "invitee@example.com", models.RoleMember).
		Return(nil, nil, services.ErrDuplicateInvitation)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Post("/workspaces/:workspaceId/invitations", env.handler.Create)

	body := dto.CreateInvitationRequest{Email: "invitee@example.com"}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPost, "/workspaces/"+workspaceID.String()+"/invitations", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "pending invitation for this email already exists")

	env.invitations.AssertExpectations(t)
}

func TestInvitationHandler_Create_AlreadyMember(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "admin@example.com"
	workspaceID := uuid.New()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.RoleAdmin,
	}
	invitee := &models.User{ID: uuid.New(), Email: "invitee@example.com", Name: "Invitee"}

	env.workspaces.On("GetMember", mock.Anything, workspaceID, userID).Return(member, nil)
	env.users.On("GetByEmail", mock.Anything, "invitee@example.com").Return(invitee, nil)
	env.workspaces.On("GetMember", mock.Anything, workspaceID, invitee.ID).
		Return(&models.WorkspaceMember{WorkspaceID: workspaceID, UserID: invitee.ID, Role: models.RoleMember}, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Post("/workspaces/:workspaceId/invitations", env.handler.Create)

	body := dto.CreateInvitationRequest{Email: "invitee@example.com"}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPost, "/workspaces/"+workspaceID.String()+"/invitations", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already a member")
	assert.Empty(t, env.dispatcher.Events)

	env.invitations.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvitationHandler_Create_InvalidEmail(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "admin@example.com"
	workspaceID := uuid.New()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.RoleOwner,
	}

	env.workspaces.On("GetMember", mock.Anything, workspaceID, userID).Return(member, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Post("/workspaces/:workspaceId/invitations", env.handler.Create)

	body := dto.CreateInvitationRequest{Email: "not-an-email"}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPost, "/workspaces/"+workspaceID.String()+"/invitations", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid email address")
}

func TestInvitationHandler_Preview_Success(t *testing.T) {
	env := setupInvitationTest(t)

	invitation := &models.Invitation{
		ID:        uuid.New(),
		Email:     "invitee@example.com",
		Role:      models.RoleMember,
		Status:    models.InvitationStatusPending,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		Workspace: &models.Workspace{ID: uuid.New(), Name: "Acme"},
		Inviter:   &models.User{ID: uuid.New(), Name: "Admin"},
	}

	env.invitations.On("Lookup", mock.Anything, "sometoken").Return(invitation, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Get("/invitations/:token", env.handler.Preview)

	req := httptest.NewRequest(http.MethodGet, "/invitations/sometoken", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.InvitationPreviewResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "Acme", response.WorkspaceName)
	assert.Equal(t, "Admin", response.InviterName)
	assert.Equal(t, "invitee@example.com", response.Email)
	assert.False(t, response.Expired)

	env.invitations.AssertExpectations(t)
}

func TestInvitationHandler_Preview_Expired(t *testing.T) {
	env := setupInvitationTest(t)

	invitation := &models.Invitation{
		ID:        uuid.New(),
		Email:     "invitee@example.com",
		Role:      models.RoleMember,
		Status:    models.InvitationStatusPending,
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	}

	env.invitations.On("Lookup", mock.Anything, "deadtoken").Return(invitation, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Get("/invitations/:token", env.handler.Preview)

	req := httptest.NewRequest(http.MethodGet, "/invitations/deadtoken", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.InvitationPreviewResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.True(t, response.Expired)

	env.invitations.AssertExpectations(t)
}

func TestInvitationHandler_Preview_NotFound(t *testing.T) {
	env := setupInvitationTest(t)

	env.invitations.On("Lookup", mock.Anything, "missing").Return(nil, services.ErrInvitationNotFound)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Get("/invitations/:token", env.handler.Preview)

	req := httptest.NewRequest(http.MethodGet, "/invitations/missing", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "invitation not found")

	env.invitations.AssertExpectations(t)
}

func TestInvitationHandler_Accept_Success(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "invitee@example.com"
	workspace := &models.Workspace{ID: uuid.New(), Name: "Acme"}
	evts := []events.Event{{
		Type:        events.UserJoined,
		WorkspaceID: workspace.ID,
		ActorID:     userID,
	}}

	env.invitations.On("Accept", mock.Anything, "goodtoken", userID).Return(workspace, evts, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Post("/invitations/accept", env.handler.Accept)

	body := dto.AcceptInvitationRequest{Token: "goodtoken"}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPost, "/invitations/accept", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.WorkspaceResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, workspace.ID, response.ID)
	assert.Equal(t, "Acme", response.Name)

	require.Len(t, env.dispatcher.Events, 1)
	assert.Equal(t, events.UserJoined, env.dispatcher.Events[0].Type)

	env.invitations.AssertExpectations(t)
}

func TestInvitationHandler_Accept_AlreadyResolved(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "invitee@example.com"

	env.invitations.On("Accept", mock.Anything, "usedtoken", userID).
		Return(nil, nil, &services.AlreadyResolvedError{Status: models.InvitationStatusAccepted})

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Post("/invitations/accept", env.handler.Accept)

	body := dto.AcceptInvitationRequest{Token: "usedtoken"}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPost, "/invitations/accept", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already")
	assert.Empty(t, env.dispatcher.Events)

	env.invitations.AssertExpectations(t)
}

func TestInvitationHandler_Accept_Expired(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "invitee@example.com"

	env.invitations.On("Accept", mock.Anything, "oldtoken", userID).
		Return(nil, nil, services.ErrInvitationExpired)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Post("/invitations/accept", env.handler.Accept)

	body := dto.AcceptInvitationRequest{Token: "oldtoken"}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPost, "/invitations/accept", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Contains(t, rec.Body.String(), "invitation has expired")

	env.invitations.AssertExpectations(t)
}

func TestInvitationHandler_Accept_NotFound(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "invitee@example.com"

	env.invitations.On("Accept", mock.Anything, "missingtoken", userID).
		Return(nil, nil, services.ErrInvitationNotFound)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Post("/invitations/accept", env.handler.Accept)

	body := dto.AcceptInvitationRequest{Token: "missingtoken"}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPost, "/invitations/accept", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "invitation not found")

	env.invitations.AssertExpectations(t)
}

func TestInvitationHandler_Revoke_AlreadyResolved(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "admin@example.com"
	workspaceID := uuid.New()
	invitationID := uuid.New()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.RoleOwner,
	}

	env.workspaces.On("GetMember", mock.Anything, workspaceID, userID).Return(member, nil)
	env.invitations.On("Revoke", mock.Anything, workspaceID, invitationID).
		Return(&services.AlreadyResolvedError{Status: models.InvitationStatusAccepted})

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Delete("/workspaces/:workspaceId/invitations/:invitationId", env.handler.Revoke)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodDelete,
		"/workspaces/"+workspaceID.String()+"/invitations/"+invitationID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already")

	env.invitations.AssertExpectations(t)
}

func TestInvitationHandler_Revoke_Success(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "admin@example.com"
	workspaceID := uuid.New()
	invitationID := uuid.New()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.RoleAdmin,
	}

	env.workspaces.On("GetMember", mock.Anything, workspaceID, userID).Return(member, nil)
	env.invitations.On("Revoke", mock.Anything, workspaceID, invitationID).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Delete("/workspaces/:workspaceId/invitations/:invitationId", env.handler.Revoke)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodDelete,
		"/workspaces/"+workspaceID.String()+"/invitations/"+invitationID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invitation revoked")

	env.invitations.AssertExpectations(t)
}

func TestInvitationHandler_List_Success(t *testing.T) {
	env := setupInvitationTest(t)

	userID := uuid.New()
	email := "admin@example.com"
	workspaceID := uuid.New()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.RoleOwner,
	}
	invitations := []models.Invitation{
		{
			ID:        uuid.New(),
			Email:     "a@example.com",
			Role:      models.RoleMember,
			Token:     "secret-a",
			Status:    models.InvitationStatusPending,
			ExpiresAt: time.Now().Add(24 * time.Hour),
		},
	}

	env.workspaces.On("GetMember", mock.Anything, workspaceID, userID).Return(member, nil)
	env.invitations.On("ListPending", mock.Anything, workspaceID).Return(invitations, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Get("/workspaces/:workspaceId/invitations", env.handler.List)

	token := generateTestToken(t, env.jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodGet, "/workspaces/"+workspaceID.String()+"/invitations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.InvitationResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	require.Len(t, response, 1)
	assert.Equal(t, "a@example.com", response[0].Email)
	// tokens are only returned at creation time
	assert.Empty(t, response[0].Token)

	env.invitations.AssertExpectations(t)
}
