// Package auth holds the account workflows: registration, login, logout,
// profile management, OAuth find-or-create and admin user management.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/models"
	"github.com/seatrack/seatrack/backend/go-services/internal/password"
	"github.com/seatrack/seatrack/backend/go-services/internal/tokens"
	"github.com/seatrack/seatrack/backend/go-services/internal/users"
	"github.com/seatrack/seatrack/backend/go-services/pkg/logger"
	"github.com/seatrack/seatrack/backend/go-services/pkg/metrics"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Result is returned by every operation that signs a caller in.
type Result struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// RegisterInput carries the registration form. An empty ConfirmPassword
// means no confirmation was supplied.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// ProfileUpdate lists profile fields to change; empty values are left alone.
type ProfileUpdate struct {
	Name  string
	Email string
}

// Service encapsulates account business logic
type Service struct {
	store  users.Store
	hasher password.Hasher
	tokens *tokens.Service
}

func NewService(store users.Store, hasher password.Hasher, tok *tokens.Service) *Service {
	return &Service{store: store, hasher: hasher, tokens: tok}
}

// Register creates a local account with role user and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (res *Result, err error) {
	defer func() { metrics.RecordAuth("register", err) }()

	name := strings.TrimSpace(in.Name)
	email := models.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.MissingField
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperr.WeakPassword
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		return nil, apperr.PasswordMismatch
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register: lookup: %w", err)
	}
	if existing != nil {
		return nil, apperr.DuplicateEmail
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, apperr.WeakPassword.WithMessage("password must be at most 72 bytes long")
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	u, err := s.store.Insert(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, apperr.DuplicateEmail
		}
		return nil, fmt.Errorf("register: insert: %w", err)
	}
	logger.Infof("auth: registered user id=%d", u.ID)
	return s.signIn(u)
}

// Login checks email and password. Unknown email and wrong password yield
// the same InvalidCredentials error.
func (s *Service) Login(ctx context.Context, email, plain string) (res *Result, err error) {
	defer func() { metrics.RecordAuth("login", err) }()

	email = models.NormalizeEmail(email)
	if email == "" || plain == "" {
		return nil, apperr.MissingField.WithMessage("email and password are required")
	}
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("login: lookup: %w", err)
	}
	if u == nil || !u.HasPassword() || !s.hasher.Verify(plain, u.PasswordHash) {
		return nil, apperr.InvalidCredentials
	}
	if !u.IsActive() {
		return nil, apperr.AccountInactive
	}
	return s.signIn(u)
}

// Logout revokes the presented token. It never fails towards the caller;
// storage errors are only logged.
func (s *Service) Logout(ctx context.Context, c *tokens.Claims) error {
	if c == nil {
		return nil
	}
	if err := s.tokens.Revoke(ctx, c); err != nil {
		logger.Errorf("auth: revoke token for user id=%d: %v", c.UserID, err)
	}
	metrics.RecordAuth("logout", nil)
	return nil
}

// Verify validates a raw token and checks the account behind it still
// exists and is active.
func (s *Service) Verify(ctx context.Context, raw string) (*tokens.Claims, error) {
	c, err := s.tokens.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	u, err := s.store.FindByID(ctx, c.UserID)
	if err != nil {
		return nil, fmt.Errorf("verify: lookup: %w", err)
	}
	if u == nil {
		return nil, apperr.InvalidToken.WithMessage("account no longer exists")
	}
	if !u.IsActive() {
		return nil, apperr.AccountInactive
	}
	// role and email follow the stored account, not the values frozen at issue time
	c.Role = u.Role
	c.Email = u.Email
	return c, nil
}

// GetProfile returns the sanitized account record.
func (s *Service) GetProfile(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound
	}
	return u.Sanitized(), nil
}

// UpdateProfile applies the supplied name and email. Re-submitting one's own
// email, in any case, is not a conflict.
func (s *Service) UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) (*models.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound
	}

	var p users.Patch
	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = &name
	}
	if email := models.NormalizeEmail(in.Email); email != "" && email != u.Email {
		other, err := s.store.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if other != nil && other.ID != id {
			return nil, apperr.EmailTaken
		}
		p.Email = &email
	}
	if p.Empty() {
		return u.Sanitized(), nil
	}
	return s.update(ctx, id, p)
}

// SetAvatar records the object key of an uploaded avatar.
func (s *Service) SetAvatar(ctx context.Context, id int64, key string) (*models.User, error) {
	return s.update(ctx, id, users.Patch{AvatarKey: &key})
}

// Avatar returns the stored avatar object key and the provider avatar URL
// of user id; either may be empty.
func (s *Service) Avatar(ctx context.Context, id int64) (key, url string, err error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", "", fmt.Errorf("avatar: %w", err)
	}
	if u == nil {
		return "", "", apperr.NotFound
	}
	return u.AvatarKey, u.Avatar, nil
}

// EnsureAdmin makes sure an admin account exists for email, creating it
// with the given password or promoting an existing record. Empty email or
// password disables bootstrapping.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, plain string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" || plain == "" {
		return nil, nil
	}
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}
	if u != nil {
		if u.Role == models.RoleAdmin {
			return u.Sanitized(), nil
		}
		role := models.RoleAdmin
		logger.Warnf("auth: promoting existing user id=%d to admin", u.ID)
		return s.update(ctx, u.ID, users.Patch{Role: &role})
	}

	if len(plain) < MinPasswordLength {
		return nil, apperr.WeakPassword
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}
	if strings.TrimSpace(name) == "" {
		name = "Admin User"
	}
	u, err = s.store.Insert(ctx, &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}
	logger.Infof("auth: bootstrapped admin id=%d", u.ID)
	return u.Sanitized(), nil
}

func (s *Service) signIn(u *models.User) (*Result, error) {
	tok, _, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Result{User: u.Sanitized(), Token: tok}, nil
}

func (s *Service) update(ctx context.Context, id int64, p users.Patch) (*models.User, error) {
	u, err := s.store.Update(ctx, id, p)
	switch {
	case errors.Is(err, users.ErrNotFound):
		return nil, apperr.NotFound
	case errors.Is(err, users.ErrDuplicateEmail):
		return nil, apperr.EmailTaken
	case err != nil:
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return u.Sanitized(), nil
}
