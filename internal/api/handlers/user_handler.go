// internal/api/handlers/user_handler.go
package handlers

import (
	"net/http"

	"military-logistics-api-server/internal/api/middleware"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	Users *service.UserService
}

func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// SearchUsers matches ?search= against names, email and rank, with optional
// base, department and role filters.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	q := service.UserSearch{
		Search:     c.Query("search"),
		Base:       rbac.Base(c.Query("base")),
		Department: c.Query("department"),
		Role:       rbac.Role(c.Query("role")),
	}
	users, err := h.Users.Search(c.Request.Context(), middleware.Principal(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "count": len(users)})
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.Users.Get(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Users.Create(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req service.UpdateUserInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Users.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.Users.Delete(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
