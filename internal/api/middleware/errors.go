// internal/api/middleware/errors.go
package middleware

import (
	"errors"
	"net/http"

	"military-logistics-api-server/internal/apperror"

	"github.com/gin-gonic/gin"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperror.KindInsufficientPermission:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindInvalidStateTransition, apperror.KindInsufficientInventory:
		return http.StatusConflict
	case apperror.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody renders err as {"error", "code", ...details}. Errors that are not
// *apperror.Error are reported as an opaque dependency failure.
func ErrorBody(err error) (int, gin.H) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  apperror.KindDependency.Code(),
		}
	}

	body := gin.H{
		"error": appErr.Message,
		"code":  appErr.Kind.Code(),
	}
	switch appErr.Kind {
	case apperror.KindInsufficientPermission:
		body["permission"] = appErr.Permission
		body["role"] = appErr.Role
	case apperror.KindInsufficientInventory:
		body["required"] = appErr.Required
		body["available"] = appErr.Available
	case apperror.KindValidation:
		if appErr.Field != "" {
			body["field"] = appErr.Field
		}
	}
	return StatusFor(appErr.Kind), body
}
