package handlers

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/auth"
	"github.com/seatrack/seatrack/backend/go-services/internal/models"
	"github.com/seatrack/seatrack/backend/go-services/internal/rbac"
	"github.com/seatrack/seatrack/backend/go-services/pkg/middleware"
)

// RoleRequest is the body of PUT /admin/users/:id/role
type RoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

// StatusRequest is the body of PUT /admin/users/:id/status
type StatusRequest struct {
	Status string `json:"status" binding:"required,status"`
}

var registerValidators sync.Once

// RegisterValidators adds the "role" and "status" tags to gin's validator.
func RegisterValidators() {
	registerValidators.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			_, ok := models.ParseRole(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
			_, ok := models.ParseStatus(fl.Field().String())
			return ok
		})
	})
}

// AdminHandler serves user management for admins.
type AdminHandler struct {
	accounts *auth.Service
	limit    []gin.HandlerFunc
}

func NewAdminHandler(accounts *auth.Service) *AdminHandler {
	RegisterValidators()
	return &AdminHandler{accounts: accounts}
}

// WithRateLimit installs per-user limiters on the admin routes.
func (h *AdminHandler) WithRateLimit(mw ...gin.HandlerFunc) *AdminHandler {
	h.limit = mw
	return h
}

// Register routes under /admin
func (h *AdminHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/admin", protected(h.accounts, h.limit, middleware.RequireRole(rbac.Admin))...)
	a.GET("/users", h.ListUsers)
	a.PUT("/users/:id/role", h.ChangeRole)
	a.PUT("/users/:id/status", h.ChangeStatus)
	a.DELETE("/users/:id", h.DeleteUser)
	a.GET("/stats", h.Stats)
}

func actorRole(c *gin.Context) models.Role {
	if claims, ok := middleware.ClaimsFrom(c); ok {
		return claims.Role
	}
	return ""
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.AbortWithError(c, apperr.InvalidID)
		return 0, false
	}
	return id, true
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	list, err := h.accounts.ListUsers(c.Request.Context(), actorRole(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

func (h *AdminHandler) ChangeRole(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperr.InvalidRole)
		return
	}
	u, err := h.accounts.ChangeRole(c.Request.Context(), actorRole(c), id, req.Role)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AdminHandler) ChangeStatus(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperr.InvalidStatus)
		return
	}
	u, err := h.accounts.ChangeStatus(c.Request.Context(), actorRole(c), id, req.Status)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	u, err := h.accounts.DeleteUser(c.Request.Context(), actorRole(c), id)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "message": "User deleted successfully"})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	st, err := h.accounts.Stats(c.Request.Context(), actorRole(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
