package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"viewsync/internal/auth"
	"viewsync/internal/logging"
)

// AuthHandler exposes admin login, token refresh and logout.
type AuthHandler struct {
	service *auth.Service
	logger  logging.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logging.NewComponentLogger("AuthHandler"),
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login implements POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "username and password required")
		return
	}
	pair, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Warn("Failed login for %q from %s", req.Username, c.ClientIP())
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.logger.Info("Admin %s logged in from %s", req.Username, c.ClientIP())
	respondData(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh implements POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "refreshToken required")
		return
	}
	pair, err := h.service.Refresh(req.RefreshToken)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "invalid token")
		return
	}
	respondData(c, pair)
}

// Logout implements POST /api/v1/auth/logout, revoking the refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "refreshToken required")
		return
	}
	if err := h.service.Revoke(req.RefreshToken); err != nil {
		respondError(c, http.StatusUnauthorized, "invalid token")
		return
	}
	respondMessage(c, "logged out", nil)
}

// Me implements GET /api/v1/auth/me for the authenticated admin.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authorization required")
		return
	}
	respondData(c, gin.H{
		"username": claims.Username,
		"role":     claims.Role,
	})
}
