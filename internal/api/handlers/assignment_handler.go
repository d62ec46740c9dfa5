// internal/api/handlers/assignment_handler.go
package handlers

import (
	"net/http"

	"military-logistics-api-server/internal/api/middleware"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type AssignmentHandler struct {
	Assignments *service.AssignmentService
}

func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req service.AssignmentInput
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.Assignments.Create(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (h *AssignmentHandler) GetAllAssignments(c *gin.Context) {
	assignments, err := h.Assignments.List(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(assignments))
}

func (h *AssignmentHandler) GetAssignmentsByPersonnel(c *gin.Context) {
	assignments, err := h.Assignments.ListByPersonnel(c.Request.Context(), middleware.Principal(c), c.Param("personnelId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(assignments))
}

func orEmpty(assignments []models.Assignment) []models.Assignment {
	if assignments == nil {
		return []models.Assignment{}
	}
	return assignments
}

func (h *AssignmentHandler) GetAssignmentByID(c *gin.Context) {
	assignment, err := h.Assignments.Get(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	var req service.AssignmentInput
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.Assignments.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	if err := h.Assignments.Delete(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment deleted successfully"})
}

// UpdateAssignmentStatus answers 409 with required and available counts when
// activation finds too few units.
func (h *AssignmentHandler) UpdateAssignmentStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.Assignments.UpdateStatus(c.Request.Context(), middleware.Principal(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}
