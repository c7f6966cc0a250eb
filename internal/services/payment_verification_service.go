package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"payment-verification-api/internal/database"
	"payment-verification-api/internal/gateway"
	"payment-verification-api/internal/models"
	"payment-verification-api/pkg/logging"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Amount tolerance for matching and sufficiency checks. A payment within 5%
// under the expected amount is accepted as sufficient, which absorbs rounding
// and rail fee differences; anything lower is an incomplete payment.
var (
	toleranceLow  = decimal.NewFromFloat(0.95)
	toleranceHigh = decimal.NewFromFloat(1.05)
)

// ProcessResult is the aggregate outcome of one reconciliation pass
type ProcessResult struct {
	Success                bool   `json:"success"`
	Message                string `json:"message"`
	NotificationsProcessed int    `json:"notifications_processed"`
	SmsProcessed           int    `json:"sms_processed"`
}

// ManualVerificationResult is returned by the admin verify/reject operations
type ManualVerificationResult struct {
	Success      bool                        `json:"success"`
	Message      string                      `json:"message"`
	Subscription *models.SubscriptionSummary `json:"subscription,omitempty"`
}

// PendingVerificationsResult lists subscriptions awaiting verification
type PendingVerificationsResult struct {
	Success              bool                  `json:"success"`
	Message              string                `json:"message,omitempty"`
	PendingSubscriptions []models.Subscription `json:"pending_subscriptions"`
	TotalCount           int64                 `json:"total_count"`
	Limit                int                   `json:"limit"`
	Skip                 int                   `json:"skip"`
}

// PaymentVerificationService reconciles payment messages scraped from the
// gateway feeds against pending subscriptions.
type PaymentVerificationService struct {
	gateway  *gateway.Client
	cache    *TransactionCache
	notifier *PaymentNotifier
	alerts   *AlertService
}

// NewPaymentVerificationService creates the service with its collaborators
// wired from the application configuration.
func NewPaymentVerificationService() *PaymentVerificationService {
	client := gateway.NewClient()
	return &PaymentVerificationService{
		gateway:  client,
		cache:    NewTransactionCache(database.GetRedis()),
		notifier: NewPaymentNotifier(client),
		alerts:   NewAlertService(),
	}
}

// ProcessAllPaymentUpdates runs one full reconciliation pass: fetch both
// feeds concurrently, filter them down to plausible payment messages, then
// verify each message strictly one at a time so two messages can never race
// to claim the same pending subscription.
func (s *PaymentVerificationService) ProcessAllPaymentUpdates(ctx context.Context) ProcessResult {
	logging.Infof("Starting payment updates processing...")

	var notifications, smsMessages []gateway.RawMessage
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		msgs, err := s.gateway.FetchNotifications(ctx)
		if err != nil {
			// Transient upstream failure: zero messages this tick
			logging.Errorf("Error fetching notifications: %v", err)
			return
		}
		notifications = msgs
	}()
	go func() {
		defer wg.Done()
		msgs, err := s.gateway.FetchSmsMessages(ctx)
		if err != nil {
			logging.Errorf("Error fetching SMS messages: %v", err)
			return
		}
		smsMessages = msgs
	}()
	wg.Wait()

	validNotifications := FilterPaymentSources(notifications)
	validSms := FilterPaymentSources(smsMessages)

	notificationsProcessed := s.processMessages(ctx, validNotifications)
	smsProcessed := s.processMessages(ctx, validSms)

	logging.Infof("Payment updates processing completed.")

	s.cache.Cleanup()

	return ProcessResult{
		Success:                true,
		Message:                "Payment updates processed successfully",
		NotificationsProcessed: notificationsProcessed,
		SmsProcessed:           smsProcessed,
	}
}

// processMessages extracts and verifies each message sequentially. A failure
// on one message is logged and the rest of the batch continues.
func (s *PaymentVerificationService) processMessages(ctx context.Context, messages []gateway.RawMessage) int {
	processed := 0

	for _, msg := range messages {
		details := ExtractPaymentDetailsFromMessage(msg)
		if !details.Usable() {
			continue
		}

		// Skip transactions already consumed within the cache lifetime
		if details.TransactionID != "" && s.cache.Has(ctx, details.TransactionID) {
			continue
		}

		verified := s.VerifyPayment(ctx, details)

		if verified && details.TransactionID != "" {
			s.cache.Mark(ctx, details.TransactionID)
			processed++
		}
	}

	return processed
}

// VerifyPayment matches extracted payment details against the pool of
// pending subscriptions and applies the verification decision. Returns true
// only when a subscription was transitioned to completed.
func (s *PaymentVerificationService) VerifyPayment(ctx context.Context, details *PaymentDetails) bool {
	if !details.Usable() {
		return false
	}

	// Authoritative duplicate check, always against the persistent store:
	// the in-memory cache is not durable.
	if details.TransactionID != "" {
		if s.handleDuplicateTransaction(ctx, details.TransactionID) {
			return false
		}
	}

	subscription := s.findCandidate(details)
	if subscription == nil {
		// Not a recognized payment for any pending subscription; leave it
		// for a future poll or manual admin action.
		return false
	}

	logging.Infof("Payment verification in progress for subscription: %d", subscription.ID)

	// Amount sufficiency: the received amount must reach 95% of what the
	// subscription expects.
	if details.Amount != nil && subscription.PaymentDetails.Amount.IsPositive() {
		required := subscription.PaymentDetails.Amount
		if details.Amount.LessThan(required.Mul(toleranceLow)) {
			s.handleIncompletePayment(ctx, subscription, *details.Amount, required)
			return false
		}
	}

	return s.completeSubscription(ctx, subscription, details)
}

// handleDuplicateTransaction returns true when the transaction id is already
// bound to a completed subscription. The pending subscription quoting the
// same id is failed and its user notified.
func (s *PaymentVerificationService) handleDuplicateTransaction(ctx context.Context, transactionID string) bool {
	_, err := database.FindCompletedVerifiedByTransactionID(transactionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Errorf("Database error during duplicate check: %v", err)
		}
		return false
	}

	pending, err := database.FindPendingByTransactionID(transactionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Errorf("Database error locating pending duplicate: %v", err)
		}
		return true
	}

	now := time.Now()
	if _, err := database.MarkPendingSubscriptionStatus(pending.ID, models.PaymentStatusFailed, now); err != nil {
		logging.Errorf("Failed to fail duplicate subscription %d: %v", pending.ID, err)
		return true
	}
	logging.Infof("Subscription %d failed: duplicate transaction id %s", pending.ID, transactionID)

	if user, err := database.GetUserByID(pending.UserID); err == nil {
		s.notifier.SendDuplicateTransaction(ctx, user, transactionID)
	}
	s.alerts.DuplicateTransactionAlert(transactionID, pending.ID)

	return true
}

// findCandidate locates the pending subscription this payment is meant to
// settle: by transaction id first, then by amount window, optionally
// constrained by payment method. Candidates are picked by the ±5% window
// around the extracted amount, so a payment never binds across unrelated
// magnitudes.
func (s *PaymentVerificationService) findCandidate(details *PaymentDetails) *models.Subscription {
	if details.TransactionID != "" {
		subscription, err := database.FindPendingByTransactionID(details.TransactionID)
		if err == nil {
			return subscription
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Errorf("Database error during candidate lookup: %v", err)
			return nil
		}
	}

	if details.Amount == nil {
		return nil
	}

	minAmount := details.Amount.Mul(toleranceLow)
	maxAmount := details.Amount.Mul(toleranceHigh)

	// The method constraint only narrows the broadened search after a
	// transaction-id miss; an amount-only message matches on amount alone.
	method := models.PaymentMethod("")
	if details.TransactionID != "" {
		method = details.Method
	}

	subscription, err := database.FindPendingByAmountRange(minAmount, maxAmount, method)
	if err == nil {
		return subscription
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Errorf("Database error during amount-only lookup: %v", err)
	}
	return nil
}

// handleIncompletePayment moves the subscription to incomplete and notifies
// the user about the shortfall.
func (s *PaymentVerificationService) handleIncompletePayment(ctx context.Context, subscription *models.Subscription, received, required decimal.Decimal) {
	now := time.Now()
	claimed, err := database.MarkPendingSubscriptionStatus(subscription.ID, models.PaymentStatusIncomplete, now)
	if err != nil {
		logging.Errorf("Failed to mark subscription %d incomplete: %v", subscription.ID, err)
		return
	}
	if !claimed {
		return
	}

	logging.Infof("Payment verification failed: incomplete payment amount for subscription %d", subscription.ID)

	if user, err := database.GetUserByID(subscription.UserID); err == nil {
		s.notifier.SendIncompletePayment(ctx, user, subscription)
	}
	s.alerts.IncompletePaymentAlert(subscription.ID, received.String(), required.String())
}

// completeSubscription performs the pending -> completed transition with a
// conditional update and mirrors the result onto the owning user.
func (s *PaymentVerificationService) completeSubscription(ctx context.Context, subscription *models.Subscription, details *PaymentDetails) bool {
	now := time.Now()
	updates := map[string]interface{}{
		"payment_status":              models.PaymentStatusCompleted,
		"payment_verified":            true,
		"payment_verification_method": models.VerificationMethodAutomatic,
		"is_active":                   true,
		"verification_date":           now,
		"last_verification_attempt":   now,
	}
	if details.TransactionID != "" && subscription.PaymentDetails.TransactionID == "" {
		updates["payment_transaction_id"] = details.TransactionID
	}
	if details.NotificationID != "" {
		updates["payment_notification_id"] = details.NotificationID
	}

	claimed, err := database.CompletePendingSubscription(subscription, updates)
	if err != nil {
		logging.Errorf("Database error completing subscription %d: %v", subscription.ID, err)
		return false
	}
	if !claimed {
		// Another tick or a manual verification got there first
		logging.Infof("Subscription %d was no longer pending, skipping", subscription.ID)
		return false
	}

	logging.Infof("Payment has been verified and subscription %d status updated to COMPLETED", subscription.ID)

	if err := database.UpdateUserSubscriptionMirror(subscription.UserID, subscription.EndDate, subscription.PackageID); err != nil {
		// The subscription is verified; a failed mirror update is logged
		// and left for the next verification touch.
		logging.Errorf("Error updating user subscription status: %v", err)
	} else {
		logging.Infof("User %d subscription status updated to ACTIVE", subscription.UserID)
	}

	if user, err := database.GetUserByID(subscription.UserID); err == nil {
		s.notifier.SendPaymentSuccess(ctx, user, subscription)
	}

	return true
}

// ManuallyVerifyPayment is the admin path: it bypasses extraction and
// matching entirely and completes the subscription directly.
func (s *PaymentVerificationService) ManuallyVerifyPayment(ctx context.Context, subscriptionID uint, adminID, notes string) ManualVerificationResult {
	subscription, err := database.GetSubscriptionByID(subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ManualVerificationResult{Success: false, Message: "Subscription not found"}
		}
		return ManualVerificationResult{Success: false, Message: "Error manually verifying payment: " + err.Error()}
	}

	logging.Infof("Manual verification initiated for subscription: %d", subscriptionID)

	now := time.Now()
	subscription.PaymentStatus = models.PaymentStatusCompleted
	subscription.PaymentVerified = true
	subscription.PaymentVerificationMethod = models.VerificationMethodManual
	subscription.AdminVerified = true
	subscription.AdminVerifiedBy = adminID
	subscription.AdminNotes = notes
	subscription.VerificationDate = &now
	subscription.LastVerificationAttempt = &now
	subscription.IsActive = true

	if err := database.UpdateSubscription(subscription); err != nil {
		return ManualVerificationResult{Success: false, Message: "Error manually verifying payment: " + err.Error()}
	}
	logging.Infof("Payment has been manually verified and subscription status updated to COMPLETED")

	if err := database.UpdateUserSubscriptionMirror(subscription.UserID, subscription.EndDate, subscription.PackageID); err != nil {
		logging.Errorf("Error updating user subscription status: %v", err)
	}

	if user, err := database.GetUserByID(subscription.UserID); err == nil {
		s.notifier.SendPaymentSuccess(ctx, user, subscription)
	}

	return ManualVerificationResult{
		Success:      true,
		Message:      "Payment manually verified successfully",
		Subscription: subscription.Summary(),
	}
}

// ManuallyRejectPayment is the symmetric admin rejection path
func (s *PaymentVerificationService) ManuallyRejectPayment(ctx context.Context, subscriptionID uint, adminID, reason string) ManualVerificationResult {
	subscription, err := database.GetSubscriptionByID(subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ManualVerificationResult{Success: false, Message: "Subscription not found"}
		}
		return ManualVerificationResult{Success: false, Message: "Error manually rejecting payment: " + err.Error()}
	}

	logging.Infof("Manual rejection initiated for subscription: %d", subscriptionID)

	now := time.Now()
	subscription.PaymentStatus = models.PaymentStatusRejected
	subscription.PaymentVerified = false
	subscription.PaymentVerificationMethod = models.VerificationMethodManual
	subscription.AdminVerified = true
	subscription.AdminVerifiedBy = adminID
	subscription.AdminNotes = reason
	subscription.LastVerificationAttempt = &now
	subscription.IsActive = false

	if err := database.UpdateSubscription(subscription); err != nil {
		return ManualVerificationResult{Success: false, Message: "Error manually rejecting payment: " + err.Error()}
	}
	logging.Infof("Payment has been manually rejected")

	if reason == "" {
		reason = "Payment rejected by admin"
	}
	if user, err := database.GetUserByID(subscription.UserID); err == nil {
		s.notifier.SendPaymentFailure(ctx, user, subscription, reason)
	}

	return ManualVerificationResult{
		Success:      true,
		Message:      "Payment manually rejected successfully",
		Subscription: subscription.Summary(),
	}
}

// GetPendingVerifications lists subscriptions awaiting verification, newest
// first, limited to the last 7 days.
func (s *PaymentVerificationService) GetPendingVerifications(limit, skip int) PendingVerificationsResult {
	if limit <= 0 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}

	subscriptions, totalCount, err := database.GetPendingVerifications(limit, skip)
	if err != nil {
		logging.Errorf("Error getting pending verifications: %v", err)
		return PendingVerificationsResult{
			Success:              false,
			Message:              "Error getting pending verifications: " + err.Error(),
			PendingSubscriptions: []models.Subscription{},
		}
	}

	return PendingVerificationsResult{
		Success:              true,
		PendingSubscriptions: subscriptions,
		TotalCount:           totalCount,
		Limit:                limit,
		Skip:                 skip,
	}
}
