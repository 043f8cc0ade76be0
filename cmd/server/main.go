// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kucukkal/dealer-backend/internal/cache"
	"github.com/kucukkal/dealer-backend/internal/config"
	"github.com/kucukkal/dealer-backend/internal/database"
	"github.com/kucukkal/dealer-backend/internal/router"
	"github.com/kucukkal/dealer-backend/internal/scheduler"
	"github.com/kucukkal/dealer-backend/internal/services"
	"github.com/kucukkal/dealer-backend/internal/vinlock"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.Fatal("Failed to initialize database: ", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.Fatal("Failed to run migrations: ", err)
	}

	// Seed the fixed dealership user set
	if cfg.App.SeedUsers {
		if err := database.SeedInitialData(db); err != nil {
			logrus.Fatal("Failed to seed users: ", err)
		}
	}

	// Finance summary cache; the app runs uncached when Redis is down
	summaryCache := cache.NewSummaryCache(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		time.Duration(cfg.Redis.CacheTTL)*time.Second,
	)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := summaryCache.Ping(pingCtx); err != nil {
		logrus.WithError(err).Warn("Redis unreachable, finance summary cache disabled")
		summaryCache.Close()
		summaryCache = nil
	}
	cancelPing()

	// Shared infrastructure
	locker := vinlock.New()
	paymentService := services.NewPaymentService(cfg)
	notificationService := services.NewNotificationService(cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize storage: ", err)
	}

	// Domain services, shared between the HTTP layer and the scheduler
	svc := router.Services{
		Auth:      services.NewAuthService(db, cfg),
		Inventory: services.NewInventoryService(db, locker, storageService, summaryCache),
		Sales:     services.NewSalesService(db, locker, paymentService, summaryCache),
		Repair:    services.NewRepairService(db, locker, summaryCache),
		Finance:   services.NewFinanceService(db, summaryCache, notificationService),
		Promotion: services.NewPromotionService(db, locker, summaryCache),
		Admin:     services.NewAdminService(db, cfg),
	}

	// Daily sweeps
	sched := scheduler.New(svc.Repair, svc.Sales, svc.Finance, notificationService)
	sched.Start()
	defer sched.Stop()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(db, cfg, svc)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatal("Server forced to shutdown: ", err)
	}

	summaryCache.Close()
	logrus.Info("Server exited")
}
