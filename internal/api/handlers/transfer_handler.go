// internal/api/handlers/transfer_handler.go
package handlers

import (
	"net/http"

	"military-logistics-api-server/internal/api/middleware"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	Transfers *service.TransferService
}

func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var req service.TransferInput
	if !bindJSON(c, &req) {
		return
	}
	transfer, err := h.Transfers.Create(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transfer)
}

func (h *TransferHandler) GetAllTransfers(c *gin.Context) {
	transfers, err := h.Transfers.List(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if transfers == nil {
		transfers = []models.Transfer{}
	}
	c.JSON(http.StatusOK, transfers)
}

func (h *TransferHandler) GetTransferByID(c *gin.Context) {
	transfer, err := h.Transfers.Get(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) UpdateTransfer(c *gin.Context) {
	var req service.TransferInput
	if !bindJSON(c, &req) {
		return
	}
	transfer, err := h.Transfers.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) DeleteTransfer(c *gin.Context) {
	if err := h.Transfers.Delete(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transfer deleted successfully"})
}

func (h *TransferHandler) UpdateTransferStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	transfer, err := h.Transfers.UpdateStatus(c.Request.Context(), middleware.Principal(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}
