package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dkovac/taskboard-api/internal/database"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/oauth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	if user.PasswordHash == nil && user.Provider == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash fixture password: %v", err)
		}
		h := string(hash)
		user.PasswordHash = &h
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, avatar_url, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, user.PasswordHash, user.AvatarURL, user.Provider, user.ProviderID).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// WithPassword stores a bcrypt hash of the given password
func WithPassword(t *testing.T, password string) UserOption {
	return func(u *models.User) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash fixture password: %v", err)
		}
		h := string(hash)
		u.PasswordHash = &h
	}
}

// WithProvider sets the user's OAuth provider
func WithProvider(provider, providerID string) UserOption {
	return func(u *models.User) {
		u.Provider = &provider
		u.ProviderID = &providerID
	}
}

// WithAvatar sets the user's avatar URL
func WithAvatar(url string) UserOption {
	return func(u *models.User) {
		u.AvatarURL = &url
	}
}

// CreateWorkspace creates a test workspace owned by the given user
func (f *Fixtures) CreateWorkspace(t *testing.T, owner *models.User, opts ...WorkspaceOption) *models.Workspace {
	t.Helper()
	f.counter++

	ws := &models.Workspace{
		Name: fmt.Sprintf("Test Workspace %d", f.counter),
	}

	for _, opt := range opts {
		opt(ws)
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO workspaces (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, ws.Name).Scan(&ws.ID, &ws.Name, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
	`, ws.ID, owner.ID, models.RoleOwner)
	if err != nil {
		t.Fatalf("failed to add owner as member: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	ws.MemberCount = 1
	return ws
}

// WorkspaceOption configures a test workspace
type WorkspaceOption func(*models.Workspace)

// WithWorkspaceName sets the workspace name
func WithWorkspaceName(name string) WorkspaceOption {
	return func(w *models.Workspace) {
		w.Name = name
	}
}

// AddMember adds a user to a workspace with the given role
func (f *Fixtures) AddMember(t *testing.T, ws *models.Workspace, user *models.User, role string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, user_id) DO NOTHING
	`, ws.ID, user.ID, role)
	if err != nil {
		t.Fatalf("failed to add workspace member: %v", err)
	}
}

// CreateTask creates a test task in a workspace
func (f *Fixtures) CreateTask(t *testing.T, ws *models.Workspace, creator *models.User, opts ...TaskOption) *models.Task {
	t.Helper()
	f.counter++

	task := &models.Task{
		WorkspaceID:  ws.ID,
		Title:        fmt.Sprintf("Test Task %d", f.counter),
		Priority:     models.TaskPriorityMedium,
		Status:       models.TaskStatusTodo,
		CreatedBy:    creator.ID,
		DisplayOrder: models.DefaultOrderKey,
	}

	for _, opt := range opts {
		opt(task)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO tasks (workspace_id, title, description, priority, status, due_date, assignee_id, created_by, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, task.WorkspaceID, task.Title, task.Description, task.Priority, task.Status,
		task.DueDate, task.AssigneeID, task.CreatedBy, task.DisplayOrder).Scan(
		&task.ID, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	return task
}

// TaskOption configures a test task
type TaskOption func(*models.Task)

// WithTitle sets the task title
func WithTitle(title string) TaskOption {
	return func(task *models.Task) {
		task.Title = title
	}
}

// WithStatus sets the task status
func WithStatus(status string) TaskOption {
	return func(task *models.Task) {
		task.Status = status
	}
}

// WithPriority sets the task priority
func WithPriority(priority string) TaskOption {
	return func(task *models.Task) {
		task.Priority = priority
	}
}

// WithAssignee assigns the task to a user
func WithAssignee(user *models.User) TaskOption {
	return func(task *models.Task) {
		task.AssigneeID = &user.ID
	}
}

// WithDueDate sets the task due date
func WithDueDate(due time.Time) TaskOption {
	return func(task *models.Task) {
		task.DueDate = &due
	}
}

// WithOrderKey sets the task display order key
func WithOrderKey(key string) TaskOption {
	return func(task *models.Task) {
		task.DisplayOrder = key
	}
}

// CreateInvitation creates a pending test invitation
func (f *Fixtures) CreateInvitation(t *testing.T, ws *models.Workspace, inviter *models.User, email, role string, opts ...InvitationOption) *models.Invitation {
	t.Helper()
	f.counter++

	inv := &models.Invitation{
		WorkspaceID: ws.ID,
		Email:       email,
		Role:        role,
		Token:       fmt.Sprintf("test-token-%d-%s", f.counter, uuid.NewString()),
		Status:      models.InvitationStatusPending,
		InvitedBy:   inviter.ID,
		ExpiresAt:   time.Now().Add(7 * 24 * time.Hour),
	}

	for _, opt := range opts {
		opt(inv)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO invitations (workspace_id, email, role, token, status, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, inv.WorkspaceID, inv.Email, inv.Role, inv.Token, inv.Status, inv.InvitedBy, inv.ExpiresAt).Scan(
		&inv.ID, &inv.CreatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create invitation: %v", err)
	}

	return inv
}

// InvitationOption configures a test invitation
type InvitationOption func(*models.Invitation)

// WithInvitationStatus sets the invitation status
func WithInvitationStatus(status string) InvitationOption {
	return func(i *models.Invitation) {
		i.Status = status
	}
}

// WithExpiresAt sets the invitation expiry
func WithExpiresAt(at time.Time) InvitationOption {
	return func(i *models.Invitation) {
		i.ExpiresAt = at
	}
}

// CreateRefreshToken creates a test refresh token
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}

// OAuthUserInfo creates test OAuth user info
func OAuthUserInfo(email, name, provider, id string) *oauth.UserInfo {
	return &oauth.UserInfo{
		Email:     email,
		Name:      name,
		AvatarURL: "https://example.com/avatar.png",
		ID:        id,
		Provider:  provider,
	}
}
