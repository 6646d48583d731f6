package handlers

import (
	"context"
	"time"

	"github.com/dkovac/taskboard-api/internal/events"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/oauth"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error)
	SetActiveWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error
}

// WorkspaceServiceInterface defines the methods used by handlers from WorkspaceService
type WorkspaceServiceInterface interface {
	Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error)
	EnsurePersonal(ctx context.Context, userID uuid.UUID) (*models.Workspace, error)
	GetByID(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error)
	GetUserWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.Workspace, []string, error)
	Update(ctx context.Context, workspaceID uuid.UUID, name string) (*models.Workspace, error)
	Delete(ctx context.Context, workspaceID uuid.UUID) error
	GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error)
	GetMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error)
	UpdateMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role string) (*models.WorkspaceMember, error)
	RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error
	Leave(ctx context.Context, workspaceID, userID uuid.UUID) error
}

// InvitationServiceInterface defines the methods used by handlers from InvitationService
type InvitationServiceInterface interface {
	Issue(ctx context.Context, workspaceID, issuerID uuid.UUID, email, role string) (*models.Invitation, []events.Event, error)
	Lookup(ctx context.Context, token string) (*models.Invitation, error)
	Accept(ctx context.Context, token string, userID uuid.UUID) (*models.Workspace, []events.Event, error)
	ListPending(ctx context.Context, workspaceID uuid.UUID) ([]models.Invitation, error)
	Revoke(ctx context.Context, workspaceID, invitationID uuid.UUID) error
}

// TaskServiceInterface defines the methods used by handlers from TaskService
type TaskServiceInterface interface {
	Create(ctx context.Context, workspaceID, creatorID uuid.UUID, input services.CreateTaskInput) (*models.Task, []events.Event, error)
	Get(ctx context.Context, workspaceID, taskID uuid.UUID) (*models.Task, error)
	List(ctx context.Context, workspaceID uuid.UUID, filter services.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, workspaceID, taskID, actorID uuid.UUID, input services.UpdateTaskInput) (*models.Task, []events.Event, error)
	Complete(ctx context.Context, workspaceID, taskID, actorID uuid.UUID) (*models.Task, []events.Event, error)
	Delete(ctx context.Context, workspaceID, taskID, actorID uuid.UUID) ([]events.Event, error)
	Reorder(ctx context.Context, workspaceID, taskID uuid.UUID, prevKey, nextKey *string) (*models.Task, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// ActivityServiceInterface defines the methods used by handlers from ActivityService
type ActivityServiceInterface interface {
	List(ctx context.Context, workspaceID uuid.UUID, limit, offset int) ([]models.ActivityLog, error)
}

// NotificationServiceInterface defines the methods used by handlers from NotificationService
type NotificationServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	GetSettings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, emailEnabled, slackEnabled bool) (*models.NotificationSettings, error)
}

// DashboardServiceInterface defines the methods used by handlers from DashboardService
type DashboardServiceInterface interface {
	GetMyDay(ctx context.Context, workspaceID, userID uuid.UUID, timezone string) (*services.MyDay, error)
}

// TeamServiceInterface defines the methods used by handlers from TeamService
type TeamServiceInterface interface {
	GetOverview(ctx context.Context, workspaceID uuid.UUID, filter services.TeamFilter) (*services.TeamOverview, error)
}

// EmailServiceInterface defines the methods used by handlers from EmailService
type EmailServiceInterface interface {
	SendWorkspaceInvitation(to, workspaceName, inviterName, inviteURL string) error
}

// EventDispatcher queues domain events for the background sinks.
type EventDispatcher interface {
	Dispatch(events ...events.Event)
}
