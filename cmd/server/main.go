package main

import (
	"log"

	"payment-verification-api/internal/api"
	"payment-verification-api/internal/config"
	"payment-verification-api/internal/database"
	"payment-verification-api/internal/scheduler"
	"payment-verification-api/internal/services"
	"payment-verification-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}

	// Initialize logging
	logging.InitLogging()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Payment verification service shared by the scheduler and the API
	verificationService := services.NewPaymentVerificationService()

	// Start the periodic reconciliation scheduler
	paymentScheduler := scheduler.New(verificationService, config.AppConfig.VerificationIntervalMinutes)
	if err := paymentScheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}
	defer paymentScheduler.Stop()

	// Set Gin mode
	gin.SetMode(config.AppConfig.Mode)

	// Create Gin engine
	r := gin.Default()

	// Setup routes
	api.SetupRoutes(r, verificationService)

	// Start server
	port := config.AppConfig.Port
	logging.Infof("Starting server on port %s", port)

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
