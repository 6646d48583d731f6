package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkovac/taskboard-api/internal/database"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/oauth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const userColumns = `id, email, name, password_hash, avatar_url, provider, provider_id, active_workspace_id, created_at, updated_at`

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

func scanUser(row interface{ Scan(...any) error }, user *models.User) error {
	return row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.ActiveWorkspaceID,
		&user.CreatedAt, &user.UpdatedAt,
	)
}

// Register creates a credential-backed account. The email must not already
// be in use, whether by another password account or an OAuth one.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user models.User
	err = scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns+`
	`, email, name, string(hash)), &user)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// Authenticate verifies an email/password pair. A missing user and a wrong
// password both return ErrInvalidCredentials so callers can't probe for
// registered emails.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1
	`, email), &user)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// OAuth-only accounts have no password hash
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE provider = $1 AND provider_id = $2
	`, info.Provider, info.ID), &user)

	if err == nil {
		if user.Email != info.Email || user.Name != info.Name || (user.AvatarURL == nil && info.AvatarURL != "") {
			_, _ = s.db.Pool.Exec(ctx, `
				UPDATE users SET email = $1, name = $2, avatar_url = $3, updated_at = NOW()
				WHERE id = $4
			`, info.Email, info.Name, nullableString(info.AvatarURL), user.ID)
			user.Email = info.Email
			user.Name = info.Name
			if info.AvatarURL != "" {
				user.AvatarURL = &info.AvatarURL
			}
		}
		return &user, nil
	}

	// An existing password account with the same email gets the provider
	// linked instead of a duplicate row.
	err = scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET provider = $1, provider_id = $2, avatar_url = COALESCE(avatar_url, $3), updated_at = NOW()
		WHERE email = $4
		RETURNING `+userColumns+`
	`, info.Provider, info.ID, nullableString(info.AvatarURL), info.Email), &user)
	if err == nil {
		return &user, nil
	}

	err = scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns+`
	`, info.Email, info.Name, nullableString(info.AvatarURL), info.Provider, info.ID), &user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1
	`, email), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+userColumns+`
	`, name, id), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetActiveWorkspace records the workspace the user last switched to. The
// user must actually be a member of it.
func (s *UserService) SetActiveWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE users SET active_workspace_id = $1, updated_at = NOW()
		WHERE id = $2 AND EXISTS (
			SELECT 1 FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
		)
	`, workspaceID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotMember
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
