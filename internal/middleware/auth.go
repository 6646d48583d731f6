package middleware

import (
	"strings"

	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

// Context keys set by Auth for downstream handlers.
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// Auth guards a route group with bearer-token authentication. On success the
// caller's identity is available via GetUserID and GetUserEmail.
func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			c.Unauthorized("invalid authorization header format")
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || token == "" || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return token, true
}

// GetUserID returns the authenticated user's ID, or uuid.Nil outside an
// authenticated route.
func GetUserID(c *drift.Context) uuid.UUID {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if v, ok := c.Get(UserEmailKey); ok {
		if email, ok := v.(string); ok {
			return email
		}
	}
	return ""
}
