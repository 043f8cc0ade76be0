// internal/handlers/finance.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kucukkal/dealer-backend/internal/services"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

type FinanceHandler struct {
	financeService *services.FinanceService
}

func NewFinanceHandler(financeService *services.FinanceService) *FinanceHandler {
	return &FinanceHandler{
		financeService: financeService,
	}
}

// GET /finance
func (h *FinanceHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.financeService.List(params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// POST /finance/run-daily-snapshot
func (h *FinanceHandler) RunSnapshot(c *gin.Context) {
	if err := h.financeService.Rebuild(); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Finance snapshot rebuilt",
	})
}

// GET /finance/summary
func (h *FinanceHandler) Summary(c *gin.Context) {
	summary, err := h.financeService.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, summary)
}
