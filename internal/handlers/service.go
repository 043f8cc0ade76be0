// internal/handlers/service.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kucukkal/dealer-backend/internal/services"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

type ServiceHandler struct {
	repairService *services.RepairService
}

func NewServiceHandler(repairService *services.RepairService) *ServiceHandler {
	return &ServiceHandler{
		repairService: repairService,
	}
}

// GET /service
func (h *ServiceHandler) List(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)

	records, err := h.repairService.List(role, location)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"count":   len(records),
		"records": records,
	})
}

// POST /service
func (h *ServiceHandler) Create(c *gin.Context) {
	var req services.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	record, err := h.repairService.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Service record created",
		"record":  record,
	})
}

// POST /service/simple-entry
func (h *ServiceHandler) SimpleEntry(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)

	var req services.SimpleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	record, err := h.repairService.SimpleEntry(role, location, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Car moved to service",
		"record":  record,
	})
}

// PATCH /service/:service_id
func (h *ServiceHandler) Update(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)

	var req services.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	record, err := h.repairService.Update(role, location, c.Param("service_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Service record updated",
		"record":  record,
	})
}

// POST /service/:service_id/complete
func (h *ServiceHandler) Complete(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)

	record, err := h.repairService.Complete(role, location, c.Param("service_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Service completed and car returned to inventory",
		"record":  record,
	})
}
