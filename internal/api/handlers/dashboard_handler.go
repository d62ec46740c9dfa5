// internal/api/handlers/dashboard_handler.go
package handlers

import (
	"net/http"

	"military-logistics-api-server/internal/api/middleware"
	"military-logistics-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	Dashboard *service.DashboardService
}

func (h *DashboardHandler) GetMetrics(c *gin.Context) {
	metrics, err := h.Dashboard.Metrics(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *DashboardHandler) GetDepartmentSummary(c *gin.Context) {
	summary, err := h.Dashboard.DepartmentSummary(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetRecentActivities takes ?limit=, defaulting to 20.
func (h *DashboardHandler) GetRecentActivities(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}
	feed, err := h.Dashboard.RecentActivities(c.Request.Context(), middleware.Principal(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *DashboardHandler) GetNetMovement(c *gin.Context) {
	report, err := h.Dashboard.NetMovement(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
