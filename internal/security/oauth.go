package security

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// OAuthUserInfo is the normalized identity document fetched from a provider
// after the code exchange.
type OAuthUserInfo struct {
	Email     string
	Name      string
	AvatarURL string
}

// OAuthProvider wraps an oauth2.Config together with the provider-specific
// userinfo endpoint and response shape.
type OAuthProvider struct {
	Name   string
	Config *oauth2.Config

	userInfoURL string
	parse       func([]byte) (*OAuthUserInfo, error)
}

// OAuthProviderConfig holds the per-provider credentials from configuration.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewGoogleProvider builds the Google OpenID Connect userinfo provider.
func NewGoogleProvider(c OAuthProviderConfig) *OAuthProvider {
	return &OAuthProvider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		parse: func(b []byte) (*OAuthUserInfo, error) {
			var body struct {
				Email   string `json:"email"`
				Name    string `json:"name"`
				Picture string `json:"picture"`
			}
			if err := json.Unmarshal(b, &body); err != nil {
				return nil, err
			}
			return &OAuthUserInfo{Email: body.Email, Name: body.Name, AvatarURL: body.Picture}, nil
		},
	}
}

// NewGitHubProvider builds the GitHub user API provider.
func NewGitHubProvider(c OAuthProviderConfig) *OAuthProvider {
	return &OAuthProvider{
		Name: "github",
		Config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userInfoURL: "https://api.github.com/user",
		parse: func(b []byte) (*OAuthUserInfo, error) {
			var body struct {
				Email     string `json:"email"`
				Name      string `json:"name"`
				Login     string `json:"login"`
				AvatarURL string `json:"avatar_url"`
			}
			if err := json.Unmarshal(b, &body); err != nil {
				return nil, err
			}
			name := body.Name
			if name == "" {
				name = body.Login
			}
			return &OAuthUserInfo{Email: body.Email, Name: name, AvatarURL: body.AvatarURL}, nil
		},
	}
}

// AuthCodeURL returns the provider redirect URL for the given state.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.Config.AuthCodeURL(state)
}

// Exchange trades the authorization code for a token and fetches the
// normalized user identity.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*OAuthUserInfo, error) {
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	client := p.Config.Client(ctx, token)
	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	buf, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read userinfo: %w", err)
	}
	info, err := p.parse(buf)
	if err != nil {
		return nil, fmt.Errorf("parse userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("provider %s returned no email", p.Name)
	}
	return info, nil
}
