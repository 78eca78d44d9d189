package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/seatrack/seatrack/backend/go-services/internal/auth"
	"github.com/seatrack/seatrack/backend/go-services/internal/config"
	"github.com/seatrack/seatrack/backend/go-services/internal/oauth"
	"github.com/seatrack/seatrack/backend/go-services/internal/password"
	"github.com/seatrack/seatrack/backend/go-services/internal/sessions"
	"github.com/seatrack/seatrack/backend/go-services/internal/tokens"
	"github.com/seatrack/seatrack/backend/go-services/internal/users"
	"github.com/seatrack/seatrack/backend/go-services/pkg/middleware"
)

// newLimitedServer wires one limiter into every handler the way main does.
func newLimitedServer(t *testing.T, limit gin.HandlerFunc) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tok, err := tokens.NewService("handlers-test-secret-0123456789", tokens.WithBlacklist(sessions.NewMemoryBlacklist()))
	require.NoError(t, err)
	accounts := auth.NewService(users.NewMemoryStore(), password.NewBcrypt(bcrypt.MinCost), tok)

	r := gin.New()
	rg := r.Group("/")
	NewAuthHandler(accounts, nil).WithRateLimit(limit).Register(rg)
	NewAdminHandler(accounts).WithRateLimit(limit).Register(rg)
	NewOAuthHandler(oauth.NewBridge(accounts), oauth.NewPublicConfig(config.OAuthConfig{})).WithRateLimit(limit).Register(rg)
	return &testServer{r: r, accounts: accounts}
}

func TestRateLimit_SignedInUsersGetTheirOwnBucket(t *testing.T) {
	s := newLimitedServer(t, middleware.RateLimitMiddleware(0.001, 1))
	ctx := context.Background()

	ana, err := s.accounts.Register(ctx, auth.RegisterInput{Name: "Ana", Email: "ana@x.com", Password: "secret1"})
	require.NoError(t, err)
	bo, err := s.accounts.Register(ctx, auth.RegisterInput{Name: "Bo", Email: "bo@x.com", Password: "secret1"})
	require.NoError(t, err)

	// same client address, different users
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/auth/profile", ana.Token, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/auth/profile", bo.Token, nil).Code)

	w := s.do(t, "GET", "/auth/verify", ana.Token, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "rate_limited", decode(t, w).Code)
	require.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimit_PublicRoutesKeyOnClientIP(t *testing.T) {
	s := newLimitedServer(t, middleware.RateLimitMiddleware(0.001, 1))

	w := s.do(t, "POST", "/auth/login", "", gin.H{"email": "nobody@x.com", "password": "secret1"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, "GET", "/oauth/config", "", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code, "public routes share the per-IP bucket")
}

func TestRateLimit_AdminRoutesKeyOnUser(t *testing.T) {
	s := newLimitedServer(t, middleware.RateLimitMiddleware(0.001, 1))
	ctx := context.Background()

	_, err := s.accounts.EnsureAdmin(ctx, "Root", "root@seatrack.io", "rootpass")
	require.NoError(t, err)
	root, err := s.accounts.Login(ctx, "root@seatrack.io", "rootpass")
	require.NoError(t, err)
	ana, err := s.accounts.Register(ctx, auth.RegisterInput{Name: "Ana", Email: "ana@x.com", Password: "secret1"})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, s.do(t, "GET", "/admin/stats", root.Token, nil).Code)
	require.Equal(t, http.StatusForbidden, s.do(t, "GET", "/admin/stats", ana.Token, nil).Code)
	require.Equal(t, http.StatusTooManyRequests, s.do(t, "GET", "/admin/users", root.Token, nil).Code)
}
