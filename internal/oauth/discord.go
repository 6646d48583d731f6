package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dkovac/taskboard-api/internal/config"
	"golang.org/x/oauth2"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

type DiscordProvider struct {
	config *oauth2.Config
}

func NewDiscordProvider(cfg config.OAuthConfig) *DiscordProvider {
	return &DiscordProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint:     discordEndpoint,
		},
	}
}

func (p *DiscordProvider) Name() string {
	return "discord"
}

func (p *DiscordProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *DiscordProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	client := p.config.Client(ctx, token)

	resp, err := client.Get("https://discord.com/api/users/@me")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord api returned status %d", resp.StatusCode)
	}

	var dcUser struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Email      string `json:"email"`
		Verified   bool   `json:"verified"`
		Avatar     string `json:"avatar"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&dcUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	if dcUser.Email == "" {
		return nil, fmt.Errorf("discord account has no email (grant the email scope)")
	}

	name := dcUser.GlobalName
	if name == "" {
		name = dcUser.Username
	}

	avatarURL := ""
	if dcUser.Avatar != "" {
		avatarURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", dcUser.ID, dcUser.Avatar)
	}

	return &UserInfo{
		Email:     dcUser.Email,
		Name:      name,
		AvatarURL: avatarURL,
		ID:        dcUser.ID,
		Provider:  "discord",
	}, nil
}
