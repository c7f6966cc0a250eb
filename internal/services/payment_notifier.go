package services

import (
	"context"
	"fmt"
	"sync"

	"payment-verification-api/internal/database"
	"payment-verification-api/internal/gateway"
	"payment-verification-api/internal/models"
	"payment-verification-api/pkg/logging"
)

// PaymentNotifier sends the outbound SMS and WhatsApp messages that follow a
// verification decision. Every send is best-effort: failures are logged and
// swallowed, never surfaced to the reconciliation path and never retried
// within the call, because the subscription state is already committed by the
// time a notification goes out.
type PaymentNotifier struct {
	gateway *gateway.Client
}

// NewPaymentNotifier creates a payment notifier
func NewPaymentNotifier(client *gateway.Client) *PaymentNotifier {
	return &PaymentNotifier{gateway: client}
}

// SendPaymentSuccess notifies the user their subscription is active
func (n *PaymentNotifier) SendPaymentSuccess(ctx context.Context, user *models.User, subscription *models.Subscription) {
	if user == nil || user.Phone == "" {
		logging.Infof("Cannot send notification: user phone missing")
		return
	}

	packageName := n.packageName(subscription)
	expiryDate := subscription.EndDate.Format("02/01/2006")

	smsText := "Your payment has been verified and your package has been activated."
	waText := fmt.Sprintf("✅ Your subscription for the %q package has been successfully activated.\nExpiry Date: %s",
		packageName, expiryDate)

	n.sendBoth(ctx, user.Phone, smsText, waText)
	logging.Infof("Success notifications sent to %s", user.Phone)
}

// SendPaymentFailure notifies the user their payment was rejected
func (n *PaymentNotifier) SendPaymentFailure(ctx context.Context, user *models.User, subscription *models.Subscription, reason string) {
	if user == nil || user.Phone == "" {
		logging.Infof("Cannot send notification: user phone missing")
		return
	}
	if reason == "" {
		reason = "Payment verification failed"
	}

	smsText := fmt.Sprintf("Your payment verification failed. Reason: %s", reason)
	waText := fmt.Sprintf("❌ Your subscription request was rejected.\nReason: %s", reason)

	n.sendBoth(ctx, user.Phone, smsText, waText)
	logging.Infof("Failure notifications sent to %s", user.Phone)
}

// SendIncompletePayment tells the user the received amount fell short
func (n *PaymentNotifier) SendIncompletePayment(ctx context.Context, user *models.User, subscription *models.Subscription) {
	if user == nil || user.Phone == "" {
		logging.Infof("Cannot send notification: user phone missing")
		return
	}

	smsText := "Incomplete payment. Please send the full amount."
	waText := "❌ Your subscription request was rejected.\nReason: Incomplete payment amount received. Please send the full amount."

	n.sendBoth(ctx, user.Phone, smsText, waText)
	logging.Infof("Incomplete payment notifications sent to %s", user.Phone)
}

// SendDuplicateTransaction tells the user their quoted transaction id was
// already consumed by an earlier subscription.
func (n *PaymentNotifier) SendDuplicateTransaction(ctx context.Context, user *models.User, transactionID string) {
	if user == nil || user.Phone == "" {
		logging.Infof("Cannot send notification: user phone missing")
		return
	}

	reason := fmt.Sprintf("Transaction ID %s has already been used for a previous subscription. Please use a new transaction ID.",
		transactionID)
	waText := fmt.Sprintf("❌ Your subscription request was rejected.\nReason: %s", reason)

	n.sendBoth(ctx, user.Phone, reason, waText)
	logging.Infof("Duplicate transaction notifications sent to %s", user.Phone)
}

// sendBoth dispatches the SMS and WhatsApp messages concurrently and waits
// only to log the outcomes.
func (n *PaymentNotifier) sendBoth(ctx context.Context, phone, smsText, waText string) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := n.gateway.SendSms(ctx, phone, smsText); err != nil {
			logging.Errorf("Error sending SMS to %s: %v", phone, err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := n.gateway.SendWhatsApp(ctx, phone, waText); err != nil {
			logging.Errorf("Error sending WhatsApp message to %s: %v", phone, err)
		}
	}()

	wg.Wait()
}

func (n *PaymentNotifier) packageName(subscription *models.Subscription) string {
	if subscription != nil {
		if pkg, err := database.GetPackageByID(subscription.PackageID); err == nil {
			return pkg.Name
		}
	}
	return "Subscription Package"
}
