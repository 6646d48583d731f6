package testutil

import (
	"context"
	"time"

	"github.com/dkovac/taskboard-api/internal/events"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/oauth"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	args := m.Called(ctx, email, name, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) SetActiveWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	args := m.Called(ctx, userID, workspaceID)
	return args.Error(0)
}

// MockWorkspaceService mocks the WorkspaceService
type MockWorkspaceService struct {
	mock.Mock
}

func (m *MockWorkspaceService) Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, name, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) EnsurePersonal(ctx context.Context, userID uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) GetByID(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) GetUserWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.Workspace, []string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Workspace), args.Get(1).([]string), args.Error(2)
}

func (m *MockWorkspaceService) Update(ctx context.Context, workspaceID uuid.UUID, name string) (*models.Workspace, error) {
	args := m.Called(ctx, workspaceID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) Delete(ctx context.Context, workspaceID uuid.UUID) error {
	args := m.Called(ctx, workspaceID)
	return args.Error(0)
}

func (m *MockWorkspaceService) GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	args := m.Called(ctx, workspaceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkspaceMember), args.Error(1)
}

func (m *MockWorkspaceService) GetMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).([]models.WorkspaceMember), args.Error(1)
}

func (m *MockWorkspaceService) UpdateMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role string) (*models.WorkspaceMember, error) {
	args := m.Called(ctx, workspaceID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkspaceMember), args.Error(1)
}

func (m *MockWorkspaceService) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	args := m.Called(ctx, workspaceID, userID)
	return args.Error(0)
}

func (m *MockWorkspaceService) Leave(ctx context.Context, workspaceID, userID uuid.UUID) error {
	args := m.Called(ctx, workspaceID, userID)
	return args.Error(0)
}

// MockInvitationService mocks the InvitationService
type MockInvitationService struct {
	mock.Mock
}

func (m *MockInvitationService) Issue(ctx context.Context, workspaceID, issuerID uuid.UUID, email, role string) (*models.Invitation, []events.Event, error) {
	args := m.Called(ctx, workspaceID, issuerID, email, role)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Invitation), args.Get(1).([]events.Event), args.Error(2)
}

func (m *MockInvitationService) Lookup(ctx context.Context, token string) (*models.Invitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Accept(ctx context.Context, token string, userID uuid.UUID) (*models.Workspace, []events.Event, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Workspace), args.Get(1).([]events.Event), args.Error(2)
}

func (m *MockInvitationService) ListPending(ctx context.Context, workspaceID uuid.UUID) ([]models.Invitation, error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).([]models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Revoke(ctx context.Context, workspaceID, invitationID uuid.UUID) error {
	args := m.Called(ctx, workspaceID, invitationID)
	return args.Error(0)
}

// MockTaskService mocks the TaskService
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, workspaceID, creatorID uuid.UUID, input services.CreateTaskInput) (*models.Task, []events.Event, error) {
	args := m.Called(ctx, workspaceID, creatorID, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Task), args.Get(1).([]events.Event), args.Error(2)
}

func (m *MockTaskService) Get(ctx context.Context, workspaceID, taskID uuid.UUID) (*models.Task, error) {
	args := m.Called(ctx, workspaceID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, workspaceID uuid.UUID, filter services.TaskFilter) ([]models.Task, error) {
	args := m.Called(ctx, workspaceID, filter)
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, workspaceID, taskID, actorID uuid.UUID, input services.UpdateTaskInput) (*models.Task, []events.Event, error) {
	args := m.Called(ctx, workspaceID, taskID, actorID, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Task), args.Get(1).([]events.Event), args.Error(2)
}

func (m *MockTaskService) Complete(ctx context.Context, workspaceID, taskID, actorID uuid.UUID) (*models.Task, []events.Event, error) {
	args := m.Called(ctx, workspaceID, taskID, actorID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Task), args.Get(1).([]events.Event), args.Error(2)
}

func (m *MockTaskService) Delete(ctx context.Context, workspaceID, taskID, actorID uuid.UUID) ([]events.Event, error) {
	args := m.Called(ctx, workspaceID, taskID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]events.Event), args.Error(1)
}

func (m *MockTaskService) Reorder(ctx context.Context, workspaceID, taskID uuid.UUID, prevKey, nextKey *string) (*models.Task, error) {
	args := m.Called(ctx, workspaceID, taskID, prevKey, nextKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockActivityService mocks the ActivityService
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) List(ctx context.Context, workspaceID uuid.UUID, limit, offset int) ([]models.ActivityLog, error) {
	args := m.Called(ctx, workspaceID, limit, offset)
	return args.Get(0).([]models.ActivityLog), args.Error(1)
}

// MockNotificationService mocks the NotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

func (m *MockNotificationService) GetSettings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationSettings), args.Error(1)
}

func (m *MockNotificationService) UpdateSettings(ctx context.Context, userID uuid.UUID, emailEnabled, slackEnabled bool) (*models.NotificationSettings, error) {
	args := m.Called(ctx, userID, emailEnabled, slackEnabled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationSettings), args.Error(1)
}

// MockDashboardService mocks the DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) GetMyDay(ctx context.Context, workspaceID, userID uuid.UUID, timezone string) (*services.MyDay, error) {
	args := m.Called(ctx, workspaceID, userID, timezone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MyDay), args.Error(1)
}

// MockTeamService mocks the TeamService
type MockTeamService struct {
	mock.Mock
}

func (m *MockTeamService) GetOverview(ctx context.Context, workspaceID uuid.UUID, filter services.TeamFilter) (*services.TeamOverview, error) {
	args := m.Called(ctx, workspaceID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TeamOverview), args.Error(1)
}

// MockEmailService mocks the EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendWorkspaceInvitation(to, workspaceName, inviterName, inviteURL string) error {
	args := m.Called(to, workspaceName, inviterName, inviteURL)
	return args.Error(0)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

// RecordingDispatcher captures dispatched events for assertions.
type RecordingDispatcher struct {
	Events []events.Event
}

func (d *RecordingDispatcher) Dispatch(evts ...events.Event) {
	d.Events = append(d.Events, evts...)
}
