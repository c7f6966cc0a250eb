package services

import (
	"strings"

	"payment-verification-api/internal/gateway"
	"payment-verification-api/internal/models"
)

// Known payment-rail senders and short codes. Entries match the sender field
// exactly (lower-cased); keyword checks run against the message text.
var (
	easypaisaNumbers = []string{"3737"}
	easypaisaSenders = []string{"easypaisa"}
	jazzcashNumbers  = []string{"8558"}
	jazzcashSenders  = []string{"jazzcsh", "jcash", "mobilink"}
	raastSenders     = []string{"raast", "sbp", "hbl", "ubl", "meezan"}
)

// Generic payment vocabulary. Deliberately permissive: the reconciliation
// engine performs the precise match later, so false positives here are cheap
// while a false negative loses a payment until manual review.
var paymentKeywords = []string{"payment", "received", "transaction", "transfer", "rec", "amount"}

// FilterPaymentSources keeps only messages that plausibly originate from a
// payment rail or carry payment vocabulary.
func FilterPaymentSources(messages []gateway.RawMessage) []gateway.RawMessage {
	filtered := make([]gateway.RawMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Text == "" {
			continue
		}
		if isPaymentSource(msg.Text, msg.Sender) {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

func isPaymentSource(text, sender string) bool {
	textLower := strings.ToLower(text)
	senderLower := strings.ToLower(sender)

	isEasypaisa := strings.Contains(textLower, "easypaisa") ||
		strings.Contains(textLower, "tpesa") ||
		matchesSender(senderLower, easypaisaNumbers) ||
		matchesSender(senderLower, easypaisaSenders)

	isJazzCash := strings.Contains(textLower, "jazzcash") ||
		strings.Contains(textLower, "jcash") ||
		strings.Contains(textLower, "mobilink") ||
		matchesSender(senderLower, jazzcashNumbers) ||
		matchesSender(senderLower, jazzcashSenders)

	isRaast := strings.Contains(textLower, "raast") || matchesRaast(textLower, senderLower)

	hasPaymentKeywords := false
	for _, keyword := range paymentKeywords {
		if strings.Contains(textLower, keyword) {
			hasPaymentKeywords = true
			break
		}
	}

	return isEasypaisa || isJazzCash || isRaast || hasPaymentKeywords
}

func matchesSender(sender string, known []string) bool {
	for _, s := range known {
		if sender == s {
			return true
		}
	}
	return false
}

// Raast notifications come from a spread of bank senders, so the keywords
// also match inside the text, not just the sender field.
func matchesRaast(textLower, senderLower string) bool {
	for _, s := range raastSenders {
		if strings.Contains(textLower, s) || senderLower == s {
			return true
		}
	}
	return false
}

// detectMethod infers the payment rail from message text and sender
func detectMethod(text, sender string) models.PaymentMethod {
	textLower := strings.ToLower(text)
	senderLower := strings.ToLower(sender)

	switch {
	case strings.Contains(textLower, "easypaisa") ||
		matchesSender(senderLower, easypaisaSenders) ||
		matchesSender(senderLower, easypaisaNumbers):
		return models.PaymentMethodEasypaisa
	case strings.Contains(textLower, "jazzcash") ||
		strings.Contains(textLower, "jcash") ||
		matchesSender(senderLower, jazzcashSenders) ||
		matchesSender(senderLower, jazzcashNumbers):
		return models.PaymentMethodJazzCash
	case strings.Contains(textLower, "raast") || matchesRaast(textLower, senderLower):
		return models.PaymentMethodRaast
	}
	return ""
}
