package api

import (
	"errors"
	"net/http"
	"strconv"

	"payment-verification-api/internal/database"
	"payment-verification-api/internal/models"
	"payment-verification-api/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentHandlers exposes the payment verification service over HTTP
type PaymentHandlers struct {
	service *services.PaymentVerificationService
}

// NewPaymentHandlers creates the handler set
func NewPaymentHandlers(service *services.PaymentVerificationService) *PaymentHandlers {
	return &PaymentHandlers{service: service}
}

// CheckPayments manually triggers a full reconciliation pass
func (h *PaymentHandlers) CheckPayments(c *gin.Context) {
	result := h.service.ProcessAllPaymentUpdates(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment verification check completed",
		"data": gin.H{
			"notificationsProcessed": result.NotificationsProcessed,
			"smsProcessed":           result.SmsProcessed,
		},
	})
}

// VerifyPaymentRequest is the manual verification request body
type VerifyPaymentRequest struct {
	SubscriptionID uint   `json:"subscription_id" binding:"required"`
	Notes          string `json:"notes"`
}

// VerifyPayment manually verifies a subscription payment
func (h *PaymentHandlers) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Subscription ID is required",
		})
		return
	}

	adminID := strconv.FormatUint(uint64(c.GetUint("admin_id")), 10)
	result := h.service.ManuallyVerifyPayment(c.Request.Context(), req.SubscriptionID, adminID, req.Notes)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
		if result.Message == "Subscription not found" {
			status = http.StatusNotFound
		}
	}
	c.JSON(status, result)
}

// RejectPaymentRequest is the manual rejection request body
type RejectPaymentRequest struct {
	SubscriptionID uint   `json:"subscription_id" binding:"required"`
	Reason         string `json:"reason"`
}

// RejectPayment manually rejects a subscription payment
func (h *PaymentHandlers) RejectPayment(c *gin.Context) {
	var req RejectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Subscription ID is required",
		})
		return
	}

	adminID := strconv.FormatUint(uint64(c.GetUint("admin_id")), 10)
	result := h.service.ManuallyRejectPayment(c.Request.Context(), req.SubscriptionID, adminID, req.Reason)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
		if result.Message == "Subscription not found" {
			status = http.StatusNotFound
		}
	}
	c.JSON(status, result)
}

// GetPendingVerifications lists subscriptions awaiting verification
func (h *PaymentHandlers) GetPendingVerifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))

	result := h.service.GetPendingVerifications(limit, skip)
	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetPaymentStatus lets a user check the payment state of their subscription
func (h *PaymentHandlers) GetPaymentStatus(c *gin.Context) {
	subscriptionID, err := strconv.ParseUint(c.Param("subscriptionId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Subscription ID is required",
		})
		return
	}

	userID := c.GetUint("user_id")

	var subscription models.Subscription
	dbErr := database.GetDB().
		Where("id = ? AND user_id = ?", subscriptionID, userID).
		First(&subscription).Error
	if dbErr != nil {
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Subscription not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Server Error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"paymentStatus":      subscription.PaymentStatus,
			"isVerified":         subscription.PaymentVerified,
			"verificationMethod": subscription.PaymentVerificationMethod,
			"isActive":           subscription.IsActive,
			"adminVerified":      subscription.AdminVerified,
		},
	})
}
