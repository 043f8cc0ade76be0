// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kucukkal/dealer-backend/internal/config"
	"github.com/kucukkal/dealer-backend/internal/handlers"
	"github.com/kucukkal/dealer-backend/internal/middleware"
	"github.com/kucukkal/dealer-backend/internal/models"
	"github.com/kucukkal/dealer-backend/internal/services"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

// Services bundles the domain services the HTTP layer exposes. They
// are built once in main and shared with the scheduler so both sides
// use the same VIN locks and summary cache.
type Services struct {
	Auth      *services.AuthService
	Inventory *services.InventoryService
	Sales     *services.SalesService
	Repair    *services.RepairService
	Finance   *services.FinanceService
	Promotion *services.PromotionService
	Admin     *services.AdminService
}

func Initialize(db *gorm.DB, cfg *config.Config, svc Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	inventoryHandler := handlers.NewInventoryHandler(svc.Inventory)
	salesHandler := handlers.NewSalesHandler(svc.Sales)
	serviceHandler := handlers.NewServiceHandler(svc.Repair)
	financeHandler := handlers.NewFinanceHandler(svc.Finance)
	promotionHandler := handlers.NewPromotionHandler(svc.Promotion)
	adminHandler := handlers.NewAdminHandler(svc.Admin)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/seed-admin", authHandler.SeedAdmin)
			auth.POST("/create-user",
				middleware.AuthRequired(),
				middleware.RolesRequired(models.RoleAdmin),
				authHandler.CreateUser)
		}

		// Inventory routes
		inventory := v1.Group("/inventory")
		inventory.Use(middleware.AuthRequired())
		{
			inventory.GET("",
				middleware.RolesRequired(models.RoleAdmin, models.RoleBuyerRep),
				inventoryHandler.List)
			inventory.POST("",
				middleware.RolesRequired(models.RoleAdmin, models.RoleBuyerRep),
				inventoryHandler.Create)
			inventory.POST("/upload",
				middleware.ImportRateLimit(),
				middleware.RolesRequired(models.RoleAdmin, models.RoleBuyerRep),
				inventoryHandler.Import)
			inventory.GET("/:vin",
				middleware.RolesRequired(models.RoleAdmin, models.RoleSalesRep, models.RoleBuyerRep),
				inventoryHandler.Get)
			inventory.PATCH("/:vin",
				middleware.RolesRequired(models.RoleAdmin, models.RoleBuyerRep),
				inventoryHandler.Update)
			inventory.DELETE("/:vin",
				middleware.RolesRequired(models.RoleAdmin),
				inventoryHandler.Delete)
		}

		// Sales routes
		sales := v1.Group("/sales")
		sales.Use(middleware.AuthRequired())
		{
			sales.GET("",
				middleware.RolesRequired(models.RoleAdmin, models.RoleSalesRep),
				salesHandler.List)
			sales.GET("/inventory-search",
				middleware.RolesRequired(models.RoleAdmin, models.RoleSalesRep),
				salesHandler.SearchInventory)
			sales.POST("",
				middleware.RolesRequired(models.RoleAdmin, models.RoleFinance, models.RoleSalesRep),
				salesHandler.Upsert)
		}

		// Service routes
		service := v1.Group("/service")
		service.Use(middleware.AuthRequired())
		{
			service.GET("",
				middleware.RolesRequired(models.RoleAdmin, models.RoleServiceRep),
				serviceHandler.List)
			service.POST("",
				middleware.RolesRequired(models.RoleAdmin, models.RoleServiceRep),
				serviceHandler.Create)
			service.POST("/simple-entry",
				middleware.RolesRequired(models.RoleServiceRep),
				serviceHandler.SimpleEntry)
			service.PATCH("/:service_id",
				middleware.RolesRequired(models.RoleServiceRep),
				serviceHandler.Update)
			service.POST("/:service_id/complete",
				middleware.RolesRequired(models.RoleServiceRep),
				serviceHandler.Complete)
		}

		// Finance routes
		finance := v1.Group("/finance")
		finance.Use(middleware.AuthRequired(),
			middleware.RolesRequired(models.RoleAdmin, models.RoleFinance))
		{
			finance.GET("", financeHandler.List)
			finance.POST("/run-daily-snapshot", financeHandler.RunSnapshot)
			finance.GET("/summary", financeHandler.Summary)
		}

		// Promotion routes
		promotion := v1.Group("/promotion")
		promotion.Use(middleware.AuthRequired(),
			middleware.RolesRequired(models.RoleAdmin, models.RolePR))
		{
			promotion.GET("/inventory", promotionHandler.GroupedInventory)
			promotion.POST("/update-price", promotionHandler.UpdatePrice)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.POST("/reset-db", adminHandler.ResetDatabase)
		}
	}

	return r
}
