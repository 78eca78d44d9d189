// Package oauth exchanges third-party access tokens for local accounts.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/auth"
)

const (
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	FacebookGraphURL  = "https://graph.facebook.com/me?fields=id,name,email,picture"

	defaultTimeout = 10 * time.Second
	maxProfileBody = 1 << 20
)

// Provider fetches the identity behind an access token.
type Provider interface {
	Name() string
	FetchProfile(ctx context.Context, accessToken string) (*auth.OAuthProfile, error)
}

// client performs bearer-authenticated GETs against one identity endpoint.
type client struct {
	url  string
	http *http.Client
}

func newClient(url string, timeout time.Duration) client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return client{url: url, http: &http.Client{Timeout: timeout}}
}

func (c client) getJSON(ctx context.Context, accessToken string, v interface{}) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return apperr.ProviderError.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return apperr.ProviderError.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.ProviderError.Wrap(fmt.Errorf("identity endpoint returned %d", resp.StatusCode))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBody)).Decode(v); err != nil {
		return apperr.ProviderError.Wrap(fmt.Errorf("decode profile: %w", err))
	}
	return nil
}

// Google reads the OpenID userinfo endpoint.
type Google struct{ c client }

// NewGoogle returns a Google provider; an empty url selects GoogleUserInfoURL.
func NewGoogle(url string, timeout time.Duration) *Google {
	if url == "" {
		url = GoogleUserInfoURL
	}
	return &Google{c: newClient(url, timeout)}
}

func (g *Google) Name() string { return "google" }

func (g *Google) FetchProfile(ctx context.Context, accessToken string) (*auth.OAuthProfile, error) {
	var body struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := g.c.getJSON(ctx, accessToken, &body); err != nil {
		return nil, err
	}
	if body.Sub == "" || body.Email == "" {
		return nil, apperr.ProviderError.WithMessage("google profile is missing id or email")
	}
	return &auth.OAuthProfile{
		Name:       body.Name,
		Email:      body.Email,
		Avatar:     body.Picture,
		Provider:   g.Name(),
		ProviderID: body.Sub,
	}, nil
}

// Facebook reads the Graph API "me" node.
type Facebook struct{ c client }

// NewFacebook returns a Facebook provider; an empty url selects FacebookGraphURL.
func NewFacebook(url string, timeout time.Duration) *Facebook {
	if url == "" {
		url = FacebookGraphURL
	}
	return &Facebook{c: newClient(url, timeout)}
}

func (f *Facebook) Name() string { return "facebook" }

func (f *Facebook) FetchProfile(ctx context.Context, accessToken string) (*auth.OAuthProfile, error) {
	var body struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := f.c.getJSON(ctx, accessToken, &body); err != nil {
		return nil, err
	}
	if body.ID == "" || body.Email == "" {
		return nil, apperr.ProviderError.WithMessage("facebook profile is missing id or email")
	}
	return &auth.OAuthProfile{
		Name:       body.Name,
		Email:      body.Email,
		Avatar:     body.Picture.Data.URL,
		Provider:   f.Name(),
		ProviderID: body.ID,
	}, nil
}
