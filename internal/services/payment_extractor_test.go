package services

import (
	"testing"
	"time"

	"payment-verification-api/internal/gateway"
	"payment-verification-api/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPaymentDetailsEasypaisaReceipt(t *testing.T) {
	text := "You have received Rs 10.00 from AMBREEN FATIMA. TRX ID 36620983731"

	details := ExtractPaymentDetails(text, time.Now(), "")
	require.NotNil(t, details)

	assert.Equal(t, "36620983731", details.TransactionID)
	require.NotNil(t, details.Amount)
	assert.True(t, details.Amount.Equal(decimal.RequireFromString("10.00")),
		"expected 10.00, got %s", details.Amount)
	assert.Equal(t, "AMBREEN FATIMA", details.SenderInfo)
}

func TestExtractPaymentDetailsJazzCashAlphanumericID(t *testing.T) {
	text := "JazzCash: Payment of PKR 2,500 received. JC4471829"

	details := ExtractPaymentDetails(text, time.Now(), "")
	require.NotNil(t, details)

	assert.Equal(t, models.PaymentMethodJazzCash, details.Method)
	require.NotNil(t, details.Amount)
	assert.True(t, details.Amount.Equal(decimal.NewFromInt(2500)),
		"expected 2500, got %s", details.Amount)
	// The labelled pattern fires on the JC prefix and takes the digits
	assert.Equal(t, "4471829", details.TransactionID)
}

func TestExtractPaymentDetailsNoSignal(t *testing.T) {
	details := ExtractPaymentDetails("hello there, how are you", time.Now(), "")
	assert.Nil(t, details)
}

func TestExtractPaymentDetailsEmptyText(t *testing.T) {
	assert.Nil(t, ExtractPaymentDetails("", time.Now(), ""))
}

func TestExtractTransactionIDPrecedence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled trx id", "Trx ID 36620983731 received", "36620983731"},
		{"labelled tid with colon", "TID: 998877665 confirmed", "998877665"},
		{"alphanumeric token", "Payment ref EPX99881 received", "EPX99881"},
		{"bare digit run", "payment confirmed 1234567890", "1234567890"},
		{"labelled wins over bare run", "TRX ID 111222333 ref 999888777666", "111222333"},
		{"no id", "payment received thanks", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTransactionID(tt.text))
		})
	}
}

func TestExtractAmountPatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"rupee label", "Rs 1,000.50 credited", "1000.50"},
		{"rupee label with dot", "Rs. 500 credited", "500"},
		{"pkr label", "PKR 2500 credited", "2500"},
		{"amount of", "amount of 750 credited", "750"},
		{"payment of", "payment of Rs 1200", "1200"},
		{"bare fallback", "code 450 thanks", "450"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := extractAmount(tt.text)
			require.NotNil(t, amount)
			assert.True(t, amount.Equal(decimal.RequireFromString(tt.want)),
				"expected %s, got %s", tt.want, amount)
		})
	}
}

func TestExtractAmountNoDigits(t *testing.T) {
	assert.Nil(t, extractAmount("no numbers here"))
}

func TestExtractSenderInfoTerminators(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"period terminator", "received from AMBREEN FATIMA. TRX ID 123", "AMBREEN FATIMA"},
		{"to terminator", "transfer from ALI RAZA to your wallet", "ALI RAZA"},
		{"end of text", "payment from HASSAN KHAN", "HASSAN KHAN"},
		{"no sender", "payment received", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractSenderInfo(tt.text))
		})
	}
}

func TestExtractAccountNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled account", "credited to account 4521", "4521"},
		{"masked number", "sent to 0345***8921 successfully", "8921"},
		{"last four digit run", "ref 1111 then 2222 done", "2222"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractAccountNumber(tt.text))
		})
	}
}

func TestExtractFromMessageStampsNotificationID(t *testing.T) {
	msg := gateway.RawMessage{
		ID:        "notif-77",
		Text:      "EasyPaisa: received Rs 500 Trx ID 12345678",
		Sender:    "easypaisa",
		Timestamp: time.Now(),
	}

	details := ExtractPaymentDetailsFromMessage(msg)
	require.NotNil(t, details)
	assert.Equal(t, "notif-77", details.NotificationID)
	assert.Equal(t, models.PaymentMethodEasypaisa, details.Method)
}

func TestExtractMethodFromKnownSender(t *testing.T) {
	msg := gateway.RawMessage{
		ID:        "sms-1",
		Text:      "Payment of 500 received. Trx ID 99887766",
		Sender:    "8558",
		Timestamp: time.Now(),
	}

	details := ExtractPaymentDetailsFromMessage(msg)
	require.NotNil(t, details)
	assert.Equal(t, models.PaymentMethodJazzCash, details.Method)
}
