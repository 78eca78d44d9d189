// Package tokens issues and verifies signed session tokens.
package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/models"
	"github.com/seatrack/seatrack/backend/go-services/internal/sessions"
	"github.com/seatrack/seatrack/backend/go-services/pkg/logger"
)

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// ErrEmptySecret is returned when a Service is built without a signing secret.
var ErrEmptySecret = errors.New("tokens: signing secret is empty")

// Claims is the verified token payload.
type Claims struct {
	UserID int64       `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenID returns the jti claim.
func (c *Claims) TokenID() string { return c.ID }

// Remaining returns how long the token stays valid after now.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}

// Service signs HS256 tokens and checks them against the revocation list.
type Service struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	revoked sessions.Blacklist
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithIssuer(iss string) Option { return func(s *Service) { s.issuer = iss } }

// WithBlacklist enables revocation checks during Verify.
func WithBlacklist(b sessions.Blacklist) Option { return func(s *Service) { s.revoked = b } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	s := &Service{secret: []byte(secret), ttl: DefaultTTL, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue creates a signed token for the user. Every call yields a distinct jti.
func (s *Service) Issue(u *models.User) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return tok, claims, nil
}

// Verify parses raw and returns its claims. Failures are apperr.InvalidToken,
// apperr.ExpiredToken or apperr.RevokedToken.
func (s *Service) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ExpiredToken
		}
		return nil, apperr.InvalidToken.Wrap(err)
	}
	if claims.UserID == 0 || !claims.Role.Valid() {
		return nil, apperr.InvalidToken
	}
	if s.revoked != nil && claims.ID != "" {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			// fail closed: a revoked token must not pass while the list is unreachable
			logger.Errorf("revocation lookup failed: %v", err)
			return nil, err
		}
		if revoked {
			return nil, apperr.RevokedToken
		}
	}
	return claims, nil
}

// Revoke blacklists the token for the rest of its lifetime. Without a
// blacklist it is a no-op: tokens then stay valid until expiry.
func (s *Service) Revoke(ctx context.Context, c *Claims) error {
	if s.revoked == nil || c == nil || c.ID == "" {
		return nil
	}
	return s.revoked.Revoke(ctx, c.ID, c.Remaining(s.now()))
}
