package oauth

import (
	"context"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/auth"
	"github.com/seatrack/seatrack/backend/go-services/internal/config"
	"github.com/seatrack/seatrack/backend/go-services/internal/oidc"
	"github.com/seatrack/seatrack/backend/go-services/pkg/logger"
)

// Accounts resolves a provider profile to a signed-in account.
type Accounts interface {
	SignInWithOAuth(ctx context.Context, p auth.OAuthProfile) (*auth.Result, error)
}

// IDTokenVerifier checks a provider-issued ID token.
type IDTokenVerifier interface {
	Verify(ctx context.Context, raw string) (*oidc.Identity, error)
}

// Bridge turns provider access tokens into local sessions.
type Bridge struct {
	accounts  Accounts
	providers map[string]Provider
	idTokens  IDTokenVerifier
}

func NewBridge(accounts Accounts, providers ...Provider) *Bridge {
	b := &Bridge{accounts: accounts, providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		b.providers[p.Name()] = p
	}
	return b
}

// WithIDTokenVerifier enables Google ID token sign-in.
func (b *Bridge) WithIDTokenVerifier(v IDTokenVerifier) *Bridge {
	b.idTokens = v
	return b
}

// Exchange fetches the profile behind accessToken from provider and signs
// the matching account in, creating it on first use.
func (b *Bridge) Exchange(ctx context.Context, provider, accessToken string) (*auth.Result, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, apperr.MissingToken
	}
	p, ok := b.providers[provider]
	if !ok {
		return nil, apperr.ProviderError.WithMessage("unsupported identity provider")
	}
	profile, err := p.FetchProfile(ctx, accessToken)
	if err != nil {
		logger.Warnf("oauth: %s profile fetch failed: %v", provider, err)
		return nil, err
	}
	return b.accounts.SignInWithOAuth(ctx, *profile)
}

func (b *Bridge) ExchangeGoogle(ctx context.Context, accessToken string) (*auth.Result, error) {
	return b.Exchange(ctx, "google", accessToken)
}

func (b *Bridge) ExchangeFacebook(ctx context.Context, accessToken string) (*auth.Result, error) {
	return b.Exchange(ctx, "facebook", accessToken)
}

// ExchangeGoogleIDToken signs in with a Google ID token instead of an
// access token.
func (b *Bridge) ExchangeGoogleIDToken(ctx context.Context, idToken string) (*auth.Result, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, apperr.MissingToken
	}
	if b.idTokens == nil {
		return nil, apperr.ProviderError.WithMessage("google id token sign-in is not configured")
	}
	id, err := b.idTokens.Verify(ctx, idToken)
	if err != nil {
		logger.Warnf("oauth: google id token rejected: %v", err)
		return nil, apperr.InvalidToken.Wrap(err)
	}
	return b.accounts.SignInWithOAuth(ctx, auth.OAuthProfile{
		Name:       id.Name,
		Email:      id.Email,
		Avatar:     id.Picture,
		Provider:   "google",
		ProviderID: id.Subject,
	})
}

// ClientInfo is the public part of a provider's client configuration.
type ClientInfo struct {
	ClientID    string `json:"clientId,omitempty"`
	AppID       string `json:"appId,omitempty"`
	Scope       string `json:"scope"`
	RedirectURI string `json:"redirectUri"`
	AuthURL     string `json:"authUrl"`
	Enabled     bool   `json:"enabled"`
}

// PublicConfig is what browsers need to start a provider sign-in.
type PublicConfig struct {
	Google   ClientInfo `json:"google"`
	Facebook ClientInfo `json:"facebook"`
}

// GoogleConfig builds the oauth2 client configuration for Google.
func GoogleConfig(c config.ProviderConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     endpoints.Google,
	}
}

// FacebookConfig builds the oauth2 client configuration for Facebook.
func FacebookConfig(c config.ProviderConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       []string{"email", "public_profile"},
		Endpoint:     endpoints.Facebook,
	}
}

// NewPublicConfig derives the browser-facing settings. Secrets never leave
// this function.
func NewPublicConfig(c config.OAuthConfig) PublicConfig {
	g := GoogleConfig(c.Google)
	f := FacebookConfig(c.Facebook)
	return PublicConfig{
		Google: ClientInfo{
			ClientID:    g.ClientID,
			Scope:       strings.Join(g.Scopes, " "),
			RedirectURI: g.RedirectURL,
			AuthURL:     g.Endpoint.AuthURL,
			Enabled:     g.ClientID != "",
		},
		Facebook: ClientInfo{
			AppID:       f.ClientID,
			Scope:       strings.Join(f.Scopes, ","),
			RedirectURI: f.RedirectURL,
			AuthURL:     f.Endpoint.AuthURL,
			Enabled:     f.ClientID != "",
		},
	}
}
