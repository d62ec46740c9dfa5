// internal/api/handlers/purchase_handler.go
package handlers

import (
	"net/http"

	"military-logistics-api-server/internal/api/middleware"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	Purchases *service.PurchaseService
}

func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req service.PurchaseInput
	if !bindJSON(c, &req) {
		return
	}
	purchase, err := h.Purchases.Create(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

// GetAllPurchases accepts category, status, startDate and endDate filters.
func (h *PurchaseHandler) GetAllPurchases(c *gin.Context) {
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
	q := service.PurchaseFilter{
		Category:  c.Query("category"),
		Status:    c.Query("status"),
		StartDate: start,
		EndDate:   end,
	}
	purchases, err := h.Purchases.List(c.Request.Context(), middleware.Principal(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}
	c.JSON(http.StatusOK, purchases)
}

func (h *PurchaseHandler) GetAvailableEquipment(c *gin.Context) {
	purchases, err := h.Purchases.AvailableEquipment(c.Request.Context(), middleware.Principal(c), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}
	c.JSON(http.StatusOK, purchases)
}

func (h *PurchaseHandler) GetPurchaseByID(c *gin.Context) {
	purchase, err := h.Purchases.Get(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func (h *PurchaseHandler) UpdatePurchase(c *gin.Context) {
	var req service.PurchaseInput
	if !bindJSON(c, &req) {
		return
	}
	purchase, err := h.Purchases.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func (h *PurchaseHandler) DeletePurchase(c *gin.Context) {
	if err := h.Purchases.Delete(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Purchase deleted successfully"})
}

func (h *PurchaseHandler) UpdatePurchaseStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	purchase, err := h.Purchases.UpdateStatus(c.Request.Context(), middleware.Principal(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func (h *PurchaseHandler) ApprovePurchase(c *gin.Context) {
	purchase, err := h.Purchases.Approve(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}
