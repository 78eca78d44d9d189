package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/oauth"
	"github.com/seatrack/seatrack/backend/go-services/pkg/middleware"
)

// OAuthRequest carries a provider credential. Google also accepts an ID token.
type OAuthRequest struct {
	AccessToken string `json:"accessToken"`
	IDToken     string `json:"idToken"`
}

// OAuthHandler exchanges provider tokens for local sessions.
type OAuthHandler struct {
	bridge *oauth.Bridge
	public oauth.PublicConfig
	limit  []gin.HandlerFunc
}

func NewOAuthHandler(bridge *oauth.Bridge, public oauth.PublicConfig) *OAuthHandler {
	return &OAuthHandler{bridge: bridge, public: public}
}

// WithRateLimit installs limiters on the /oauth routes. They are public, so
// requests are keyed by client IP.
func (h *OAuthHandler) WithRateLimit(mw ...gin.HandlerFunc) *OAuthHandler {
	h.limit = mw
	return h
}

// Register routes under /oauth
func (h *OAuthHandler) Register(rg *gin.RouterGroup) {
	o := rg.Group("/oauth", h.limit...)
	o.POST("/google", h.Google)
	o.POST("/facebook", h.Facebook)
	o.GET("/config", h.Config)
}

func (h *OAuthHandler) bind(c *gin.Context) (OAuthRequest, bool) {
	var req OAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperr.MissingToken)
		return req, false
	}
	return req, true
}

func (h *OAuthHandler) Google(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	exchange := h.bridge.ExchangeGoogle
	cred := req.AccessToken
	if cred == "" && req.IDToken != "" {
		exchange, cred = h.bridge.ExchangeGoogleIDToken, req.IDToken
	}
	res, err := exchange(c.Request.Context(), cred)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *OAuthHandler) Facebook(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	res, err := h.bridge.ExchangeFacebook(c.Request.Context(), req.AccessToken)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Config returns the public client settings browsers need to start a
// provider sign-in.
func (h *OAuthHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, h.public)
}
