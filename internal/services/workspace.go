package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkovac/taskboard-api/internal/database"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotMember         = errors.New("user is not a workspace member")
	ErrMemberNotFound    = errors.New("member not found")
	ErrCannotRemoveOwner = errors.New("cannot remove workspace owner")
	ErrLastAdmin         = errors.New("workspace must keep at least one admin")
	ErrOwnerCannotLeave  = errors.New("owner cannot leave their workspace")
	ErrAlreadyMember     = errors.New("user is already a workspace member")
)

type WorkspaceService struct {
	db *database.DB
}

func NewWorkspaceService(db *database.DB) *WorkspaceService {
	return &WorkspaceService{db: db}
}

// Create inserts the workspace, makes the creator its OWNER and points their
// active workspace at it, all in one transaction.
func (s *WorkspaceService) Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var workspace models.Workspace
	err = tx.QueryRow(ctx, `
		INSERT INTO workspaces (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, name).Scan(&workspace.ID, &workspace.Name, &workspace.CreatedAt, &workspace.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
	`, workspace.ID, ownerID, models.RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET active_workspace_id = $1, updated_at = NOW() WHERE id = $2
	`, workspace.ID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to set active workspace: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	workspace.MemberCount = 1
	return &workspace, nil
}

// EnsurePersonal returns the user's "Personal" workspace, creating it on
// first call. Signup and OAuth login both route through here.
func (s *WorkspaceService) EnsurePersonal(ctx context.Context, userID uuid.UUID) (*models.Workspace, error) {
	var workspace models.Workspace
	err := s.db.Pool.QueryRow(ctx, `
		SELECT w.id, w.name, w.created_at, w.updated_at
		FROM workspaces w
		JOIN workspace_members wm ON w.id = wm.workspace_id
		WHERE wm.user_id = $1 AND wm.role = $2 AND w.name = 'Personal'
		ORDER BY w.created_at
		LIMIT 1
	`, userID, models.RoleOwner).Scan(&workspace.ID, &workspace.Name, &workspace.CreatedAt, &workspace.UpdatedAt)
	if err == nil {
		return &workspace, nil
	}

	return s.Create(ctx, "Personal", userID)
}

func (s *WorkspaceService) GetByID(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error) {
	var workspace models.Workspace
	err := s.db.Pool.QueryRow(ctx, `
		SELECT w.id, w.name, w.created_at, w.updated_at,
		       (SELECT COUNT(*) FROM workspace_members wm WHERE wm.workspace_id = w.id)
		FROM workspaces w WHERE w.id = $1
	`, workspaceID).Scan(&workspace.ID, &workspace.Name, &workspace.CreatedAt, &workspace.UpdatedAt, &workspace.MemberCount)
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

func (s *WorkspaceService) GetUserWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.Workspace, []string, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT w.id, w.name, w.created_at, w.updated_at, wm.role,
		       (SELECT COUNT(*) FROM workspace_members m WHERE m.workspace_id = w.id)
		FROM workspaces w
		JOIN workspace_members wm ON w.id = wm.workspace_id
		WHERE wm.user_id = $1
		ORDER BY w.created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var workspaces []models.Workspace
	var roles []string
	for rows.Next() {
		var w models.Workspace
		var role string
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatedAt, &w.UpdatedAt, &role, &w.MemberCount); err != nil {
			return nil, nil, err
		}
		workspaces = append(workspaces, w)
		roles = append(roles, role)
	}
	return workspaces, roles, rows.Err()
}

func (s *WorkspaceService) Update(ctx context.Context, workspaceID uuid.UUID, name string) (*models.Workspace, error) {
	var workspace models.Workspace
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE workspaces SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, name, created_at, updated_at
	`, name, workspaceID).Scan(&workspace.ID, &workspace.Name, &workspace.CreatedAt, &workspace.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

func (s *WorkspaceService) Delete(ctx context.Context, workspaceID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, workspaceID)
	return err
}

// GetMember returns the caller's membership row, or ErrNotMember. Handlers
// use it for both access and role checks.
func (s *WorkspaceService) GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, workspace_id, user_id, role, created_at
		FROM workspace_members
		WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID).Scan(&member.ID, &member.WorkspaceID, &member.UserID, &member.Role, &member.CreatedAt)
	if err != nil {
		return nil, ErrNotMember
	}
	return &member, nil
}

func (s *WorkspaceService) GetMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT wm.id, wm.workspace_id, wm.user_id, wm.role, wm.created_at,
		       u.id, u.email, u.name, u.avatar_url, u.provider, u.created_at, u.updated_at
		FROM workspace_members wm
		JOIN users u ON wm.user_id = u.id
		WHERE wm.workspace_id = $1
		ORDER BY wm.created_at
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.WorkspaceMember
	for rows.Next() {
		var member models.WorkspaceMember
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.WorkspaceID, &member.UserID, &member.Role, &member.CreatedAt,
			&user.ID, &user.Email, &user.Name, &user.AvatarURL, &user.Provider, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		member.User = &user
		members = append(members, member)
	}
	return members, rows.Err()
}

// UpdateMemberRole changes a member between ADMIN and MEMBER. The OWNER role
// is assigned at creation and never reassigned here. Demoting the last
// remaining manager is refused.
func (s *WorkspaceService) UpdateMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role string) (*models.WorkspaceMember, error) {
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, `
		SELECT role FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID).Scan(&current)
	if err != nil {
		return nil, ErrMemberNotFound
	}

	if current == models.RoleOwner {
		return nil, ErrCannotRemoveOwner
	}

	if current == models.RoleAdmin && role == models.RoleMember {
		var managers int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM workspace_members
			WHERE workspace_id = $1 AND role IN ($2, $3)
		`, workspaceID, models.RoleOwner, models.RoleAdmin).Scan(&managers)
		if err != nil {
			return nil, err
		}
		if managers <= 1 {
			return nil, ErrLastAdmin
		}
	}

	var member models.WorkspaceMember
	err = tx.QueryRow(ctx, `
		UPDATE workspace_members SET role = $1
		WHERE workspace_id = $2 AND user_id = $3
		RETURNING id, workspace_id, user_id, role, created_at
	`, role, workspaceID, userID).Scan(&member.ID, &member.WorkspaceID, &member.UserID, &member.Role, &member.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &member, nil
}

func (s *WorkspaceService) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID).Scan(&role)
	if err != nil {
		return ErrMemberNotFound
	}

	if role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID)
	if err != nil {
		return err
	}

	// A removed member must not keep pointing at the workspace
	_, err = tx.Exec(ctx, `
		UPDATE users SET active_workspace_id = NULL, updated_at = NOW()
		WHERE id = $1 AND active_workspace_id = $2
	`, userID, workspaceID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Leave removes the caller's own membership. Owners cannot leave; they
// delete the workspace instead.
func (s *WorkspaceService) Leave(ctx context.Context, workspaceID, userID uuid.UUID) error {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID).Scan(&role)
	if err != nil {
		return ErrNotMember
	}

	if role == models.RoleOwner {
		return ErrOwnerCannotLeave
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET active_workspace_id = NULL, updated_at = NOW()
		WHERE id = $1 AND active_workspace_id = $2
	`, userID, workspaceID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
