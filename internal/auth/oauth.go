package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/models"
	"github.com/seatrack/seatrack/backend/go-services/internal/users"
	"github.com/seatrack/seatrack/backend/go-services/pkg/logger"
	"github.com/seatrack/seatrack/backend/go-services/pkg/metrics"
)

// OAuthProfile is a third-party identity mapped into a common shape.
type OAuthProfile struct {
	Name       string
	Email      string
	Avatar     string
	Provider   string
	ProviderID string
}

// FindOrCreateFromOAuth resolves profile to an account. It matches the
// provider identity first, then the email; an email match without a linked
// provider gets this identity attached. New accounts have role user and no
// password.
func (s *Service) FindOrCreateFromOAuth(ctx context.Context, p OAuthProfile) (*models.User, error) {
	email := models.NormalizeEmail(p.Email)
	if email == "" {
		return nil, apperr.ProviderError.WithMessage("identity provider returned no email")
	}

	if p.Provider != "" && p.ProviderID != "" {
		u, err := s.store.FindByProvider(ctx, p.Provider, p.ProviderID)
		if err != nil {
			return nil, fmt.Errorf("oauth: lookup provider: %w", err)
		}
		if u != nil {
			return u, nil
		}
	}

	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("oauth: lookup email: %w", err)
	}
	if u != nil {
		if u.Provider != "" || p.Provider == "" {
			return u, nil
		}
		patch := users.Patch{Provider: &p.Provider, ProviderID: &p.ProviderID}
		if u.Avatar == "" && p.Avatar != "" {
			patch.Avatar = &p.Avatar
		}
		linked, err := s.store.Update(ctx, u.ID, patch)
		if err != nil {
			return nil, fmt.Errorf("oauth: link provider: %w", err)
		}
		logger.Infof("auth: linked %s identity to user id=%d", p.Provider, u.ID)
		return linked, nil
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = email
	}
	u, err = s.store.Insert(ctx, &models.User{
		Name:       name,
		Email:      email,
		Role:       models.RoleUser,
		Status:     models.StatusActive,
		Provider:   p.Provider,
		ProviderID: p.ProviderID,
		Avatar:     p.Avatar,
	})
	if errors.Is(err, users.ErrDuplicateEmail) {
		// lost a race with a concurrent sign-in for the same email
		winner, err := s.store.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("oauth: reread after race: %w", err)
		}
		if winner == nil {
			return nil, apperr.ProviderError.WithMessage("account changed during sign-in, try again")
		}
		return winner, nil
	}
	if err != nil {
		return nil, fmt.Errorf("oauth: insert: %w", err)
	}
	logger.Infof("auth: created %s user id=%d", p.Provider, u.ID)
	return u, nil
}

// SignInWithOAuth resolves the profile and issues a token for it.
func (s *Service) SignInWithOAuth(ctx context.Context, p OAuthProfile) (res *Result, err error) {
	defer func() { metrics.RecordAuth("oauth_"+p.Provider, err) }()

	u, err := s.FindOrCreateFromOAuth(ctx, p)
	if err != nil {
		return nil, err
	}
	if !u.IsActive() {
		return nil, apperr.AccountInactive
	}
	return s.signIn(u)
}
