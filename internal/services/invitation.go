package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dkovac/taskboard-api/internal/database"
	"github.com/dkovac/taskboard-api/internal/events"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrInvitationExpired   = errors.New("invitation has expired")
	ErrDuplicateInvitation = errors.New("a pending invitation for this email already exists")
)

// AlreadyResolvedError reports an invitation that reached a terminal state
// before the attempted operation. Status is the state it settled in, so the
// caller can say "already accepted" rather than a generic conflict.
type AlreadyResolvedError struct {
	Status string
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("invitation already %s", e.Status)
}

const invitationColumns = `id, workspace_id, email, role, token, status, invited_by, expires_at, created_at`

type InvitationService struct {
	db  *database.DB
	ttl time.Duration
}

func NewInvitationService(db *database.DB, ttl time.Duration) *InvitationService {
	return &InvitationService{db: db, ttl: ttl}
}

func generateInviteToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Issue creates a PENDING invitation with a fresh random token. At most one
// open invitation may exist per (workspace, email): an expired pending row is
// cleared in the same transaction so it never blocks a re-invite, and the
// partial unique index catches live duplicates as ErrDuplicateInvitation. The
// caller is responsible for checking the issuer's role.
func (s *InvitationService) Issue(ctx context.Context, workspaceID, issuerID uuid.UUID, email, role string) (*models.Invitation, []events.Event, error) {
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, nil, fmt.Errorf("invalid role %q", role)
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		DELETE FROM invitations
		WHERE workspace_id = $1 AND email = $2 AND status = $3 AND expires_at <= NOW()
	`, workspaceID, email, models.InvitationStatusPending)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to clear expired invitations: %w", err)
	}

	var inv models.Invitation
	err = tx.QueryRow(ctx, `
		INSERT INTO invitations (workspace_id, email, role, token, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+invitationColumns+`
	`, workspaceID, email, role, token, issuerID, time.Now().Add(s.ttl)).Scan(
		&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.Token,
		&inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, nil, ErrDuplicateInvitation
		}
		return nil, nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	evts := []events.Event{{
		Type:        events.UserInvited,
		WorkspaceID: workspaceID,
		ActorID:     issuerID,
		EntityType:  "USER",
		EntityID:    inv.ID.String(),
		Metadata:    map[string]any{"email": email, "role": role},
	}}

	return &inv, evts, nil
}

// Lookup fetches an invitation by token without mutating it. Expired or
// resolved invitations are still returned; the preview endpoint decides what
// to show.
func (s *InvitationService) Lookup(ctx context.Context, token string) (*models.Invitation, error) {
	var inv models.Invitation
	var workspace models.Workspace
	var inviter models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT i.id, i.workspace_id, i.email, i.role, i.token, i.status, i.invited_by, i.expires_at, i.created_at,
		       w.id, w.name, w.created_at, w.updated_at,
		       u.id, u.email, u.name, u.avatar_url, u.provider, u.created_at, u.updated_at
		FROM invitations i
		JOIN workspaces w ON i.workspace_id = w.id
		JOIN users u ON i.invited_by = u.id
		WHERE i.token = $1
	`, token).Scan(
		&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.Token,
		&inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt,
		&workspace.ID, &workspace.Name, &workspace.CreatedAt, &workspace.UpdatedAt,
		&inviter.ID, &inviter.Email, &inviter.Name, &inviter.AvatarURL,
		&inviter.Provider, &inviter.CreatedAt, &inviter.UpdatedAt,
	)
	if err != nil {
		return nil, ErrInvitationNotFound
	}
	inv.Workspace = &workspace
	inv.Inviter = &inviter
	return &inv, nil
}

// Accept redeems a pending, unexpired invitation for userID and returns the
// workspace joined. Validation order is fixed: not found, then already
// resolved, then expired. The status flip is a conditional update so two
// concurrent accepts of the same token cannot both win; the loser sees zero
// rows affected and reports the invitation as already accepted.
func (s *InvitationService) Accept(ctx context.Context, token string, userID uuid.UUID) (*models.Workspace, []events.Event, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var inv models.Invitation
	err = tx.QueryRow(ctx, `
		SELECT `+invitationColumns+` FROM invitations WHERE token = $1
	`, token).Scan(
		&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.Token,
		&inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, nil, ErrInvitationNotFound
	}

	if inv.Status != models.InvitationStatusPending {
		return nil, nil, &AlreadyResolvedError{Status: inv.Status}
	}

	if inv.Expired(time.Now()) {
		return nil, nil, ErrInvitationExpired
	}

	result, err := tx.Exec(ctx, `
		UPDATE invitations SET status = $1 WHERE id = $2 AND status = $3
	`, models.InvitationStatusAccepted, inv.ID, models.InvitationStatusPending)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update invitation: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Another accept got there first
		return nil, nil, &AlreadyResolvedError{Status: models.InvitationStatusAccepted}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, user_id) DO NOTHING
	`, inv.WorkspaceID, userID, inv.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to add member: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET active_workspace_id = $1, updated_at = NOW() WHERE id = $2
	`, inv.WorkspaceID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set active workspace: %w", err)
	}

	var workspace models.Workspace
	err = tx.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at FROM workspaces WHERE id = $1
	`, inv.WorkspaceID).Scan(&workspace.ID, &workspace.Name, &workspace.CreatedAt, &workspace.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	evts := []events.Event{{
		Type:        events.UserJoined,
		WorkspaceID: inv.WorkspaceID,
		ActorID:     userID,
		EntityType:  "USER",
		EntityID:    userID.String(),
		Metadata:    map[string]any{"role": inv.Role},
	}}

	return &workspace, evts, nil
}

// ListPending returns open, unexpired invitations for a workspace, newest
// first. Expired rows keep their PENDING status in the store but are
// filtered here.
func (s *InvitationService) ListPending(ctx context.Context, workspaceID uuid.UUID) ([]models.Invitation, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT i.id, i.workspace_id, i.email, i.role, i.token, i.status, i.invited_by, i.expires_at, i.created_at,
		       u.id, u.email, u.name, u.avatar_url, u.provider, u.created_at, u.updated_at
		FROM invitations i
		JOIN users u ON i.invited_by = u.id
		WHERE i.workspace_id = $1 AND i.status = $2 AND i.expires_at > NOW()
		ORDER BY i.created_at DESC
	`, workspaceID, models.InvitationStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		var inviter models.User
		if err := rows.Scan(
			&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.Token,
			&inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt,
			&inviter.ID, &inviter.Email, &inviter.Name, &inviter.AvatarURL,
			&inviter.Provider, &inviter.CreatedAt, &inviter.UpdatedAt,
		); err != nil {
			return nil, err
		}
		inv.Inviter = &inviter
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// Revoke moves a pending invitation to REVOKED. Resolved invitations are
// reported with their terminal state; a missing row is not found.
func (s *InvitationService) Revoke(ctx context.Context, workspaceID, invitationID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE invitations SET status = $1
		WHERE id = $2 AND workspace_id = $3 AND status = $4
	`, models.InvitationStatusRevoked, invitationID, workspaceID, models.InvitationStatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var status string
	err = s.db.Pool.QueryRow(ctx, `
		SELECT status FROM invitations WHERE id = $1 AND workspace_id = $2
	`, invitationID, workspaceID).Scan(&status)
	if err != nil {
		return ErrInvitationNotFound
	}
	return &AlreadyResolvedError{Status: status}
}

// PurgeExpired deletes pending invitations whose expiry has passed. Run from
// the maintenance command, never from request handlers.
func (s *InvitationService) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM invitations WHERE status = $1 AND expires_at < NOW()
	`, models.InvitationStatusPending)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
