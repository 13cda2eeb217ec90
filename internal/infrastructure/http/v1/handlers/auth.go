package handlers

import (
	"github.com/gin-gonic/gin"

	appctx "retailops/internal/core/context"
	"retailops/internal/domain/auth"
	"retailops/internal/infrastructure/http/v1/dto"
)

// AuthHandler issues development tokens and reports the caller identity.
type AuthHandler struct {
	*BaseHandler
	jwt *auth.JWTService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, jwt *auth.JWTService) *AuthHandler {
	return &AuthHandler{BaseHandler: base, jwt: jwt}
}

// DevToken handles POST /auth/dev-token.
func (h *AuthHandler) DevToken(c *gin.Context) {
	var req dto.DevTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, expiresAt, err := h.jwt.GenerateAccessToken(appctx.UserContext{
		UserID: req.UserID,
		Roles:  req.Roles,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user := appctx.GetUser(c.Request.Context())
	h.OK(c, gin.H{
		"userId":  user.UserID,
		"roles":   user.Roles,
		"isAdmin": user.IsAdmin,
	})
}
