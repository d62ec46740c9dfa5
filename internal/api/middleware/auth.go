// internal/api/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/auth"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"

	"github.com/gin-gonic/gin"
)

const (
	userKey   = "user"
	claimsKey = "claims"
)

// UserResolver loads the account behind a verified token.
type UserResolver interface {
	Resolve(ctx context.Context, userID string) (*models.User, error)
}

// Authenticate verifies the bearer token, rejects revoked tokens and puts the
// current user and claims into the gin context.
func Authenticate(tokens *auth.TokenManager, revoker auth.Revoker, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, apperror.Unauthenticated("Authorization header is required"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			abort(c, apperror.Unauthenticated("Invalid token format"))
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			abort(c, apperror.Unauthenticated("Invalid or expired token"))
			return
		}

		revoked, err := revoker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			abort(c, apperror.Dependency("Failed to check token", err))
			return
		}
		if revoked {
			abort(c, apperror.Unauthenticated("Token has been revoked"))
			return
		}

		user, err := users.Resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(userKey, user)
		c.Set(claimsKey, claims)
		Logger(c).Debug("Authenticated request", "user_id", user.ID.Hex(), "role", user.Role)
		c.Next()
	}
}

// RequirePermission lets the request through when the current user's role
// holds at least one of tokens. Ownership is checked later, in the services.
func RequirePermission(tokens ...rbac.Token) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)
		if p == nil {
			abort(c, apperror.Unauthenticated("Authentication required"))
			return
		}
		if rbac.HasAny(p, tokens...) {
			c.Next()
			return
		}
		required := ""
		if len(tokens) > 0 {
			required = tokens[0].String()
		}
		abort(c, apperror.PermissionDenied(required, string(p.Role)))
	}
}

// CurrentUser returns the user set by Authenticate, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// Principal is the acting identity passed to every service call.
func Principal(c *gin.Context) *rbac.Principal {
	user := CurrentUser(c)
	if user == nil {
		return nil
	}
	return user.Principal()
}

func Claims(c *gin.Context) *auth.JWTClaims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.JWTClaims)
	return claims
}

func abort(c *gin.Context, err error) {
	status, body := ErrorBody(err)
	if status >= http.StatusInternalServerError {
		Logger(c).Error("Request failed", "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}
