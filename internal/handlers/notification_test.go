package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkovac/taskboard-api/internal/middleware"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/dkovac/taskboard-api/pkg/dto"
	"github.com/dkovac/taskboard-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotificationHandler_List_Success(t *testing.T) {
	mockNotificationService := new(testutil.MockNotificationService)
	handler := NewNotificationHandler(mockNotificationService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	email := "test@example.com"
	notifications := []models.Notification{
		{
			ID:        uuid.New(),
			UserID:    userID,
			Title:     "Task assigned",
			Message:   "You were assigned to Write report",
			Type:      "task",
			Read:      false,
			CreatedAt: time.Now(),
		},
	}

	mockNotificationService.On("List", mock.Anything, userID, 0).Return(notifications, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/notifications", handler.List)

	token := generateTestToken(t, jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.NotificationResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	require.Len(t, response, 1)
	assert.Equal(t, "Task assigned", response[0].Title)
	assert.False(t, response[0].Read)

	mockNotificationService.AssertExpectations(t)
}

func TestNotificationHandler_MarkRead_NotFound(t *testing.T) {
	mockNotificationService := new(testutil.MockNotificationService)
	handler := NewNotificationHandler(mockNotificationService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	email := "test@example.com"
	notificationID := uuid.New()

	mockNotificationService.On("MarkRead", mock.Anything, userID, notificationID).
		Return(services.ErrNotificationNotFound)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/notifications/:notificationId/read", handler.MarkRead)

	token := generateTestToken(t, jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPost, "/notifications/"+notificationID.String()+"/read", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "notification not found")

	mockNotificationService.AssertExpectations(t)
}

func TestNotificationHandler_MarkRead_Success(t *testing.T) {
	mockNotificationService := new(testutil.MockNotificationService)
	handler := NewNotificationHandler(mockNotificationService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	email := "test@example.com"
	notificationID := uuid.New()

	mockNotificationService.On("MarkRead", mock.Anything, userID, notificationID).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/notifications/:notificationId/read", handler.MarkRead)

	token := generateTestToken(t, jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPost, "/notifications/"+notificationID.String()+"/read", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notification read")

	mockNotificationService.AssertExpectations(t)
}

func TestNotificationHandler_UpdateSettings_Success(t *testing.T) {
	mockNotificationService := new(testutil.MockNotificationService)
	handler := NewNotificationHandler(mockNotificationService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	email := "test@example.com"
	settings := &models.NotificationSettings{
		UserID:       userID,
		EmailEnabled: true,
		SlackEnabled: false,
	}

	mockNotificationService.On("UpdateSettings", mock.Anything, userID, true, false).Return(settings, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Put("/users/me/notification-settings", handler.UpdateSettings)

	body := dto.NotificationSettingsRequest{EmailEnabled: true, SlackEnabled: false}
	jsonBody, _ := json.Marshal(body)

	token := generateTestToken(t, jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPut, "/users/me/notification-settings", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.NotificationSettingsResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.True(t, response.EmailEnabled)
	assert.False(t, response.SlackEnabled)

	mockNotificationService.AssertExpectations(t)
}

func TestNotificationHandler_GetSettings_Defaults(t *testing.T) {
	mockNotificationService := new(testutil.MockNotificationService)
	handler := NewNotificationHandler(mockNotificationService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	email := "test@example.com"

	mockNotificationService.On("GetSettings", mock.Anything, userID).
		Return(&models.NotificationSettings{UserID: userID}, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/users/me/notification-settings", handler.GetSettings)

	token := generateTestToken(t, jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodGet, "/users/me/notification-settings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.NotificationSettingsResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.False(t, response.EmailEnabled)
	assert.False(t, response.SlackEnabled)

	mockNotificationService.AssertExpectations(t)
}
