package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
)

// UserInfo is the provider-neutral identity returned by a code exchange.
// ID is the provider's stable user identifier, not ours.
type UserInfo struct {
	ID        string
	Provider  string
	Email     string
	Name      string
	AvatarURL string
}

// Provider abstracts an OAuth2 upstream. Discord is the only implementation;
// the auth handler routes on Name().
type Provider interface {
	Name() string
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
}

// GenerateState produces the CSRF state parameter for the consent redirect.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
