package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/models"
	"github.com/seatrack/seatrack/backend/go-services/internal/rbac"
	"github.com/seatrack/seatrack/backend/go-services/internal/tokens"
	"github.com/seatrack/seatrack/backend/go-services/pkg/logger"
)

// ClaimsKey is the gin context key holding the verified *tokens.Claims.
const ClaimsKey = "claims"

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (*tokens.Claims, error)
}

// AbortWithError writes err as {error, code} with its mapped status.
// Unclassified errors are logged and reported as a generic internal error.
func AbortWithError(c *gin.Context, err error) {
	pub := apperr.Public(err)
	if pub == apperr.Internal {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(pub), gin.H{"error": pub.Message, "code": pub.Code})
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			AbortWithError(c, apperr.Unauthenticated)
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			AbortWithError(c, apperr.Unauthenticated.WithMessage("invalid Authorization header"))
			return
		}

		claims, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by AuthMiddleware.
func ClaimsFrom(c *gin.Context) (*tokens.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*tokens.Claims)
	return claims, ok && claims != nil
}

// RequireRole rejects requests whose token role ranks below role.
// It must run after AuthMiddleware.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			AbortWithError(c, apperr.Unauthenticated)
			return
		}
		if err := rbac.Require(role, claims.Role); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied. Insufficient permissions.", "code": apperr.Forbidden.Code})
			return
		}
		c.Next()
	}
}
