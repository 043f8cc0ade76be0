// internal/handlers/promotion.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kucukkal/dealer-backend/internal/services"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

type PromotionHandler struct {
	promotionService *services.PromotionService
}

func NewPromotionHandler(promotionService *services.PromotionService) *PromotionHandler {
	return &PromotionHandler{
		promotionService: promotionService,
	}
}

// GET /promotion/inventory
func (h *PromotionHandler) GroupedInventory(c *gin.Context) {
	includeService := c.Query("include_service") == "true"

	grouped, err := h.promotionService.GroupedInventory(includeService)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, grouped)
}

// POST /promotion/update-price
func (h *PromotionHandler) UpdatePrice(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)

	var req services.PromotionPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.promotionService.UpdatePrice(role, location, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}
