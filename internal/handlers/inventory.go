// internal/handlers/inventory.go
package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/kucukkal/dealer-backend/internal/services"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

type InventoryHandler struct {
	inventoryService *services.InventoryService
}

func NewInventoryHandler(inventoryService *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
	}
}

// GET /inventory
func (h *InventoryHandler) List(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)
	params := utils.GetPaginationParams(c)

	result, err := h.inventoryService.List(role, location, params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /inventory/:vin
func (h *InventoryHandler) Get(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)

	item, err := h.inventoryService.Get(role, location, c.Param("vin"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// POST /inventory
func (h *InventoryHandler) Create(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)

	var req services.CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	item, err := h.inventoryService.Create(role, location, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Car added to inventory",
		"car":     item,
	})
}

// PATCH /inventory/:vin
func (h *InventoryHandler) Update(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)

	var req services.UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	item, err := h.inventoryService.Update(role, location, c.Param("vin"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Car updated successfully",
		"car":     item,
	})
}

// DELETE /inventory/:vin
func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.inventoryService.Delete(c.Param("vin")); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Car deleted successfully",
	})
}

// POST /inventory/upload
func (h *InventoryHandler) Import(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)
	username, _ := utils.GetUsernameFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "CSV file is required", err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Could not open uploaded file", err.Error())
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		utils.BadRequestResponse(c, "Could not read uploaded file", err.Error())
		return
	}

	result, err := h.inventoryService.Import(role, location, username, fileHeader.Filename, content)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}
