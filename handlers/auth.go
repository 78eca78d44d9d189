package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/auth"
	"github.com/seatrack/seatrack/backend/go-services/internal/storage"
	"github.com/seatrack/seatrack/backend/go-services/pkg/logger"
	"github.com/seatrack/seatrack/backend/go-services/pkg/middleware"
)

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileRequest is the body of PUT /auth/profile; omitted fields are kept.
type ProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
}

// AvatarStore keeps uploaded avatar images.
type AvatarStore interface {
	PutAvatar(ctx context.Context, userID int64, r io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

const avatarURLTTL = 15 * time.Minute

// AuthHandler holds dependencies
type AuthHandler struct {
	accounts *auth.Service
	avatars  AvatarStore
	limit    []gin.HandlerFunc
}

// NewAuthHandler wires the account endpoints. avatars may be nil, in which
// case the avatar endpoints answer 503.
func NewAuthHandler(accounts *auth.Service, avatars AvatarStore) *AuthHandler {
	return &AuthHandler{accounts: accounts, avatars: avatars}
}

// WithRateLimit installs limiters on every /auth route. On protected routes
// they run after authentication so they can key on the user id.
func (h *AuthHandler) WithRateLimit(mw ...gin.HandlerFunc) *AuthHandler {
	h.limit = mw
	return h
}

// protected builds the chain auth, then limiters, then extra.
func protected(ver middleware.Verifier, limit []gin.HandlerFunc, extra ...gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, 1+len(limit)+len(extra))
	chain = append(chain, middleware.AuthMiddleware(ver))
	chain = append(chain, limit...)
	return append(chain, extra...)
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth", h.limit...)
	a.POST("/register", h.SignUp)
	a.POST("/login", h.Login)

	p := rg.Group("/auth", protected(h.accounts, h.limit)...)
	p.POST("/logout", h.Logout)
	p.GET("/verify", h.Verify)
	p.GET("/profile", h.GetProfile)
	p.PUT("/profile", h.UpdateProfile)
	p.POST("/profile/avatar", h.UploadAvatar)
	p.GET("/profile/avatar", h.GetAvatar)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperr.InvalidBody)
		return
	}
	res, err := h.accounts.Register(c.Request.Context(), auth.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperr.InvalidBody)
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout revokes the presented token; it always reports success.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	_ = h.accounts.Logout(c.Request.Context(), claims)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) Verify(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	c.JSON(http.StatusOK, gin.H{"userId": claims.UserID, "email": claims.Email, "role": claims.Role})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	u, err := h.accounts.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperr.InvalidBody.WithMessage("name must be text and email a valid address"))
		return
	}
	claims, _ := middleware.ClaimsFrom(c)
	u, err := h.accounts.UpdateProfile(c.Request.Context(), claims.UserID, auth.ProfileUpdate{Name: req.Name, Email: req.Email})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// UploadAvatar stores the multipart field "avatar" in object storage.
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	if h.avatars == nil {
		middleware.AbortWithError(c, apperr.StorageUnavailable)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxAvatarSize+64<<10)
	fh, err := c.FormFile("avatar")
	if err != nil || fh.Size == 0 || fh.Size > storage.MaxAvatarSize {
		middleware.AbortWithError(c, apperr.InvalidAvatar)
		return
	}
	f, err := fh.Open()
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	defer f.Close()

	claims, _ := middleware.ClaimsFrom(c)
	ctx := c.Request.Context()
	key, err := h.avatars.PutAvatar(ctx, claims.UserID, f, fh.Size, fh.Header.Get("Content-Type"))
	if errors.Is(err, storage.ErrUnsupportedType) {
		middleware.AbortWithError(c, apperr.InvalidAvatar)
		return
	}
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	u, err := h.accounts.SetAvatar(ctx, claims.UserID, key)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	logger.Infof("avatar: user id=%d uploaded %s", claims.UserID, key)
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// GetAvatar redirects to the uploaded avatar, or to the identity provider's
// picture when none was uploaded.
func (h *AuthHandler) GetAvatar(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	ctx := c.Request.Context()
	key, external, err := h.accounts.Avatar(ctx, claims.UserID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	switch {
	case key != "":
		if h.avatars == nil {
			middleware.AbortWithError(c, apperr.StorageUnavailable)
			return
		}
		url, err := h.avatars.PresignedURL(ctx, key, avatarURLTTL)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.Redirect(http.StatusFound, url)
	case external != "":
		c.Redirect(http.StatusFound, external)
	default:
		middleware.AbortWithError(c, apperr.NotFound.WithMessage("no avatar"))
	}
}
