package api

import (
	"payment-verification-api/internal/middleware"
	"payment-verification-api/internal/services"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine, verificationService *services.PaymentVerificationService) {
	handlers := NewPaymentHandlers(verificationService)

	// API route group
	api := r.Group("/api")
	{
		// Payment verification routes (admin only)
		payments := api.Group("/payments")
		payments.Use(middleware.AdminAuthMiddleware())
		{
			payments.POST("/check-payments", handlers.CheckPayments)
			payments.POST("/verify-payment", handlers.VerifyPayment)
			payments.POST("/reject-payment", handlers.RejectPayment)
			payments.GET("/pending", handlers.GetPendingVerifications)
		}

		// Payment status route (authenticated users check their own subscription)
		status := api.Group("/payments")
		status.Use(middleware.AuthMiddleware())
		{
			status.GET("/payment-status/:subscriptionId", handlers.GetPaymentStatus)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "payment-verification-service",
		})
	})
}
