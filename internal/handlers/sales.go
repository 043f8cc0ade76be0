// internal/handlers/sales.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kucukkal/dealer-backend/internal/services"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

type SalesHandler struct {
	salesService *services.SalesService
}

func NewSalesHandler(salesService *services.SalesService) *SalesHandler {
	return &SalesHandler{
		salesService: salesService,
	}
}

// GET /sales
func (h *SalesHandler) List(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)
	params := utils.GetPaginationParams(c)

	result, err := h.salesService.List(role, location, params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /sales/inventory-search
func (h *SalesHandler) SearchInventory(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)

	filters := services.InventorySearchFilters{
		VIN:           c.Query("vin"),
		Make:          c.Query("make"),
		Model:         c.Query("model"),
		ConditionType: c.Query("condition_type"),
	}

	var err error
	if filters.YearMin, err = intQuery(c, "year_min"); err != nil {
		utils.BadRequestResponse(c, "year_min must be an integer", nil)
		return
	}
	if filters.YearMax, err = intQuery(c, "year_max"); err != nil {
		utils.BadRequestResponse(c, "year_max must be an integer", nil)
		return
	}
	if filters.MileageMin, err = intQuery(c, "mileage_min"); err != nil {
		utils.BadRequestResponse(c, "mileage_min must be an integer", nil)
		return
	}
	if filters.MileageMax, err = intQuery(c, "mileage_max"); err != nil {
		utils.BadRequestResponse(c, "mileage_max must be an integer", nil)
		return
	}
	if filters.PriceMin, err = floatQuery(c, "price_min"); err != nil {
		utils.BadRequestResponse(c, "price_min must be a number", nil)
		return
	}
	if filters.PriceMax, err = floatQuery(c, "price_max"); err != nil {
		utils.BadRequestResponse(c, "price_max must be a number", nil)
		return
	}

	cars, err := h.salesService.SearchInventory(role, location, filters)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"count": len(cars),
		"cars":  cars,
	})
}

// POST /sales
func (h *SalesHandler) Upsert(c *gin.Context) {
	role, _ := utils.GetRoleFromContext(c)
	location, _ := utils.GetLocationFromContext(c)
	username, _ := utils.GetUsernameFromContext(c)

	var req services.NegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	sale, err := h.salesService.Upsert(role, location, username, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Sale recorded successfully",
		"sale":    sale,
	})
}

func intQuery(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func floatQuery(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
