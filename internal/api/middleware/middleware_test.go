package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/auth"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type staticUsers map[string]*models.User

func (s staticUsers) Resolve(_ context.Context, userID string) (*models.User, error) {
	if u, ok := s[userID]; ok {
		return u, nil
	}
	return nil, apperror.Unauthenticated("User not found")
}

func TestErrorBody(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		extra  gin.H
	}{
		{"permission", apperror.PermissionDenied("purchase:approve", "Logistics Officer"), http.StatusForbidden,
			gin.H{"permission": "purchase:approve", "role": "Logistics Officer"}},
		{"inventory", apperror.InsufficientInventory(5, 2), http.StatusConflict,
			gin.H{"required": 5, "available": 2}},
		{"validation", apperror.Validation("quantity", "Quantity must be at least 1"), http.StatusBadRequest,
			gin.H{"field": "quantity"}},
		{"not found", apperror.NotFound("Transfer"), http.StatusNotFound, gin.H{}},
		{"state", apperror.InvalidState("Cannot delete transfer"), http.StatusConflict, gin.H{}},
		{"dependency", apperror.Dependency("Failed to query", errors.New("timeout")), http.StatusInternalServerError, gin.H{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ErrorBody(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, apperror.KindOf(tt.err).Code(), body["code"])
			for k, v := range tt.extra {
				assert.Equal(t, v, body[k], k)
			}
		})
	}
}

func TestErrorBodyHidesUnknownErrors(t *testing.T) {
	status, body := ErrorBody(errors.New("mongo: connection pool cleared"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["error"])
}

func newAuthRouter(t *testing.T, tokens *auth.TokenManager, revoker auth.Revoker, users staticUsers, gate ...rbac.Token) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestContext())
	handlers := []gin.HandlerFunc{Authenticate(tokens, revoker, users)}
	if len(gate) > 0 {
		handlers = append(handlers, RequirePermission(gate...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": Principal(c).ID, "jti": Claims(c).ID})
	})
	r.GET("/protected", handlers...)
	return r
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	revoker := auth.NewMemoryRevoker()
	officer := &models.User{ID: primitive.NewObjectID(), Role: rbac.RoleLogisticsOfficer, Base: rbac.BaseA}
	users := staticUsers{officer.ID.Hex(): officer}
	r := newAuthRouter(t, tokens, revoker, users)

	token, claims, err := tokens.Generate(officer.ID.Hex(), officer.Role, officer.Base)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, token).Code, "missing Bearer prefix")
	assert.Equal(t, http.StatusOK, get(r, "Bearer "+token).Code)

	require.NoError(t, revoker.Revoke(context.Background(), claims.ID, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+token).Code)
}

func TestAuthenticateRejectsDeletedUser(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := newAuthRouter(t, tokens, auth.NewMemoryRevoker(), staticUsers{})

	token, _, err := tokens.Generate(primitive.NewObjectID().Hex(), rbac.RoleAdmin, rbac.Headquarters)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+token).Code)
}

func TestRequirePermission(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	officer := &models.User{ID: primitive.NewObjectID(), Role: rbac.RoleLogisticsOfficer, Base: rbac.BaseA}
	commander := &models.User{ID: primitive.NewObjectID(), Role: rbac.RoleBaseCommander, Base: rbac.BaseA}
	users := staticUsers{officer.ID.Hex(): officer, commander.ID.Hex(): commander}
	r := newAuthRouter(t, tokens, auth.NewMemoryRevoker(), users, rbac.Approve(rbac.ResourceTransfer))

	officerToken, _, err := tokens.Generate(officer.ID.Hex(), officer.Role, officer.Base)
	require.NoError(t, err)
	commanderToken, _, err := tokens.Generate(commander.ID.Hex(), commander.Role, commander.Base)
	require.NoError(t, err)

	w := get(r, "Bearer "+officerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"permission":"transfer:approve"`)

	assert.Equal(t, http.StatusOK, get(r, "Bearer "+commanderToken).Code)
}

func TestRequestContextPropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestContext(), RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, w.Body.String(), 36)
}
