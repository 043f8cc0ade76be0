// internal/handlers/auth.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kucukkal/dealer-backend/internal/services"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	authResponse, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.UnauthorizedResponse(c, err.Error())
			return
		}
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user":         authResponse.User,
		"access_token": authResponse.AccessToken,
		"token_type":   authResponse.TokenType,
		"expires_in":   authResponse.ExpiresIn,
	})
}

// POST /auth/seed-admin
func (h *AuthHandler) SeedAdmin(c *gin.Context) {
	admin, err := h.authService.SeedAdmin()
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Admin user is ready",
		"user":    admin,
	})
}

// POST /auth/create-user
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	user, err := h.authService.CreateUser(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}
