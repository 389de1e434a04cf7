package handler

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/config"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/middleware"
	"github.com/nickscoggins/kroger-grocery-price-index/pkg/response"
)

// AuthHandler issues admin tokens for the protected route group
type AuthHandler struct {
	adminUser     string
	adminPassword string
	jwtSecret     string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		adminUser:     cfg.AdminUser,
		adminPassword: cfg.AdminPassword,
		jwtSecret:     cfg.JWTSecret,
	}
}

// IssueToken handles POST /api/v1/auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Invalid request body: username and password are required")
		return
	}

	if h.adminPassword == "" {
		response.Unauthorized(c, "Login is disabled")
		return
	}
	if body.Username != h.adminUser || !h.passwordMatches(body.Password) {
		response.Unauthorized(c, "Invalid credentials")
		return
	}

	token, err := middleware.IssueAdminToken(h.jwtSecret, body.Username)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"token_type": "bearer",
	})
}

func (h *AuthHandler) passwordMatches(candidate string) bool {
	if strings.HasPrefix(h.adminPassword, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(h.adminPassword), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(h.adminPassword), []byte(candidate)) == 1
}
