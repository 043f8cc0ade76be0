// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kucukkal/dealer-backend/internal/services"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// POST /admin/reset-db
func (h *AdminHandler) ResetDatabase(c *gin.Context) {
	username, _ := utils.GetUsernameFromContext(c)

	if err := h.adminService.ResetDatabase(username); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Database reset and re-seeded",
	})
}
