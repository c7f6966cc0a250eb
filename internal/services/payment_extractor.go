package services

import (
	"regexp"
	"strings"
	"time"

	"payment-verification-api/internal/gateway"
	"payment-verification-api/internal/models"

	"github.com/shopspring/decimal"
)

// PaymentDetails is what the extractor pulls out of one gateway message.
// Ephemeral: it exists only within one reconciliation pass.
type PaymentDetails struct {
	Timestamp     time.Time
	Method        models.PaymentMethod
	TransactionID string
	Amount        *decimal.Decimal
	// Diagnostic only, never used for matching
	SenderInfo    string
	AccountNumber string
	// Id of the raw message this came from, stamped by the pipeline
	NotificationID string
}

// Usable reports whether the details carry enough signal to attempt a match
func (d *PaymentDetails) Usable() bool {
	return d != nil && (d.TransactionID != "" || d.Amount != nil)
}

// Each field is extracted by an ordered cascade of patterns; the first
// pattern that matches wins and no later pattern is tried.
var (
	// Labelled transaction id, e.g. "Trx ID 36620983731"
	transactionIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:TRX\s?ID|TID|Transaction\s+ID|TRX|TR|EP|JC|RT)[\s:#]*(\d+)`),
		// Bare alphanumeric token, e.g. "JC4471829"
		regexp.MustCompile(`\b([A-Z][A-Z0-9]{5,})\b`),
		// Last resort: any standalone run of 8+ digits
		regexp.MustCompile(`\b(\d{8,})\b`),
	}

	// Labelled currency amounts, e.g. "Rs 10.00", "PKR 2,500", "amount of 500"
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Rs\.?\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)\bPKR\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)\bamount\s*(?:of|:)?\s*(?:Rs\.?|PKR)?\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)payment\s*(?:of)?\s*(?:Rs\.?|PKR)?\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)received\s*(?:Rs\.?|PKR)?\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)transferred\s*(?:Rs\.?|PKR)?\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)rec\w*\s*(?:Rs\.?|PKR)?\s*([\d,]+\.?\d*)`),
	}
	// Low-confidence fallback: any bare 2-4 digit number. Kept for recall on
	// terse rail messages; tends to misfire on unrelated numbers.
	bareAmountPattern = regexp.MustCompile(`\b(\d{2,4})\b`)

	// "from AMBREEN FATIMA." -> AMBREEN FATIMA
	senderPattern = regexp.MustCompile(`(?i)from\s+([A-Za-z ]+?)(?:\s+with|\s+to|\s+at|\s+on|[.,]|$)`)

	accountPattern       = regexp.MustCompile(`(?i)(?:account|mobile|number|no|#)\s*(?:\d+\*+)?(\d{2,4})(?:\b|\.|$)`)
	maskedNumberPattern  = regexp.MustCompile(`\b\d{2,6}\*{2,}\d{2,4}\b`)
	maskedTrailingDigits = regexp.MustCompile(`\*+(\d{2,4})\b`)
	lastFourDigits       = regexp.MustCompile(`\b(\d{4})\b`)
)

// ExtractPaymentDetailsFromMessage infers the payment method from the message
// and runs the field extractors over its text.
func ExtractPaymentDetailsFromMessage(msg gateway.RawMessage) *PaymentDetails {
	if msg.Text == "" {
		return nil
	}

	details := ExtractPaymentDetails(msg.Text, msg.Timestamp, detectMethod(msg.Text, msg.Sender))
	if details != nil {
		details.NotificationID = msg.ID
	}
	return details
}

// ExtractPaymentDetails parses payment details out of free text. Every field
// is best-effort and independent; the result is nil only when neither a
// transaction id nor an amount could be found, the minimum signal needed for
// matching.
func ExtractPaymentDetails(text string, timestamp time.Time, method models.PaymentMethod) *PaymentDetails {
	if text == "" {
		return nil
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	details := &PaymentDetails{
		Timestamp: timestamp,
		Method:    method,
	}

	// Determine payment method from the text if not supplied
	if details.Method == "" {
		textLower := strings.ToLower(text)
		switch {
		case strings.Contains(textLower, "easypaisa"):
			details.Method = models.PaymentMethodEasypaisa
		case strings.Contains(textLower, "jazzcash"):
			details.Method = models.PaymentMethodJazzCash
		case strings.Contains(textLower, "raast"):
			details.Method = models.PaymentMethodRaast
		}
	}

	details.TransactionID = extractTransactionID(text)
	details.Amount = extractAmount(text)
	details.SenderInfo = extractSenderInfo(text)
	details.AccountNumber = extractAccountNumber(text)

	if !details.Usable() {
		return nil
	}
	return details
}

func extractTransactionID(text string) string {
	for _, pattern := range transactionIDPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func extractAmount(text string) *decimal.Decimal {
	for _, pattern := range amountPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			if amount, ok := parseAmount(m[1]); ok {
				return &amount
			}
		}
	}
	if m := bareAmountPattern.FindStringSubmatch(text); m != nil {
		if amount, ok := parseAmount(m[1]); ok {
			return &amount
		}
	}
	return nil
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}

func extractSenderInfo(text string) string {
	if m := senderPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractAccountNumber(text string) string {
	if m := accountPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if masked := maskedNumberPattern.FindString(text); masked != "" {
		if m := maskedTrailingDigits.FindStringSubmatch(masked); m != nil {
			return m[1]
		}
	}
	// The last standalone 4-digit run is often the account tail
	all := lastFourDigits.FindAllStringSubmatch(text, -1)
	if len(all) > 0 {
		return all[len(all)-1][1]
	}
	return ""
}
