// internal/api/handlers/expenditure_handler.go
package handlers

import (
	"net/http"

	"military-logistics-api-server/internal/api/middleware"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type ExpenditureHandler struct {
	Expenditures *service.ExpenditureService
}

func (h *ExpenditureHandler) CreateExpenditure(c *gin.Context) {
	var req service.ExpenditureInput
	if !bindJSON(c, &req) {
		return
	}
	expenditure, err := h.Expenditures.Create(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expenditure)
}

func (h *ExpenditureHandler) GetAllExpenditures(c *gin.Context) {
	start, err := queryTime(c, "startDate")
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := queryTime(c, "endDate")
	if err != nil {
		respondError(c, err)
		return
	}
	q := service.ExpenditureFilter{
		Department: c.Query("department"),
		Category:   c.Query("category"),
		StartDate:  start,
		EndDate:    end,
	}
	expenditures, err := h.Expenditures.List(c.Request.Context(), middleware.Principal(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	if expenditures == nil {
		expenditures = []models.Expenditure{}
	}
	c.JSON(http.StatusOK, expenditures)
}

// GetExpenditureSummary accepts optional budgetYear and quarter.
func (h *ExpenditureHandler) GetExpenditureSummary(c *gin.Context) {
	year, err := queryInt(c, "budgetYear")
	if err != nil {
		respondError(c, err)
		return
	}
	quarter, err := queryInt(c, "quarter")
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := h.Expenditures.Summary(c.Request.Context(), middleware.Principal(c), service.SummaryPeriod{BudgetYear: year, Quarter: quarter})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ExpenditureHandler) GetExpenditureByID(c *gin.Context) {
	expenditure, err := h.Expenditures.Get(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expenditure)
}

func (h *ExpenditureHandler) UpdateExpenditure(c *gin.Context) {
	var req service.ExpenditureInput
	if !bindJSON(c, &req) {
		return
	}
	expenditure, err := h.Expenditures.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expenditure)
}

func (h *ExpenditureHandler) DeleteExpenditure(c *gin.Context) {
	if err := h.Expenditures.Delete(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expenditure deleted successfully"})
}
