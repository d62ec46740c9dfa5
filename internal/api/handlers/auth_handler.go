// internal/api/handlers/auth_handler.go
package handlers

import (
	"net/http"
	"time"

	"military-logistics-api-server/internal/api/middleware"
	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/auth"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	Users   *service.UserService
	Tokens  *auth.TokenManager
	Revoker auth.Revoker
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a Logistics Officer account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.Logger(c).Info("User logged in", "user_id", user.ID.Hex(), "role", user.Role)
	h.issue(c, http.StatusOK, user)
}

func (h *AuthHandler) issue(c *gin.Context, status int, user *models.User) {
	token, _, err := h.Tokens.Generate(user.ID.Hex(), user.Role, user.Base)
	if err != nil {
		respondError(c, apperror.Dependency("Failed to generate token", err))
		return
	}
	c.JSON(status, authResponse{Token: token, User: user})
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// Permissions serves the caller's permission tokens so clients can gate
// their UI off the same catalog the server enforces.
func (h *AuthHandler) Permissions(c *gin.Context) {
	user := middleware.CurrentUser(c)
	tokens := rbac.PermissionsFor(user.Role)
	perms := make([]string, 0, len(tokens))
	for _, t := range tokens {
		perms = append(perms, t.String())
	}
	c.JSON(http.StatusOK, gin.H{
		"role":        user.Role,
		"base":        user.Base,
		"scope":       rbac.ScopeFor(user.Principal()).Kind.String(),
		"permissions": perms,
	})
}

// Logout revokes the presented token until it would have expired anyway.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.Claims(c)
	until := time.Now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := h.Revoker.Revoke(c.Request.Context(), claims.ID, until); err != nil {
		respondError(c, apperror.Dependency("Failed to revoke token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
