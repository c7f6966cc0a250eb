package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"payment-verification-api/internal/config"
	"payment-verification-api/pkg/logging"
)

// AlertService emails the operations inbox when reconciliation hits a case
// that needs human eyes: a duplicate transaction id or a short payment that
// moved a subscription into the manual review queue. Disabled when no Brevo
// API key is configured; like the user notifications, alerts are best-effort.
type AlertService struct {
	apiKey     string
	fromEmail  string
	adminEmail string
	httpClient *http.Client
}

// NewAlertService creates an alert service from the application configuration
func NewAlertService() *AlertService {
	return &AlertService{
		apiKey:     config.AppConfig.BrevoAPIKey,
		fromEmail:  config.AppConfig.BrevoFromEmail,
		adminEmail: config.AppConfig.AdminAlertEmail,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether alerting is configured
func (s *AlertService) Enabled() bool {
	return s.apiKey != "" && s.adminEmail != ""
}

// DuplicateTransactionAlert flags a transaction id presented twice
func (s *AlertService) DuplicateTransactionAlert(transactionID string, subscriptionID uint) {
	subject := "Duplicate transaction id detected"
	body := fmt.Sprintf(
		"Transaction ID %s was presented again by pending subscription %d but is already bound to a completed subscription. The pending subscription has been failed.",
		transactionID, subscriptionID)
	s.send(subject, body)
}

// IncompletePaymentAlert flags a payment that fell short of the package price
func (s *AlertService) IncompletePaymentAlert(subscriptionID uint, received, required string) {
	subject := "Incomplete payment needs review"
	body := fmt.Sprintf(
		"Subscription %d received %s against a required amount of %s and was marked incomplete.",
		subscriptionID, received, required)
	s.send(subject, body)
}

type emailRequest struct {
	Sender      emailAddress   `json:"sender"`
	To          []emailAddress `json:"to"`
	Subject     string         `json:"subject"`
	TextContent string         `json:"textContent"`
}

type emailAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// send posts the email via the Brevo transactional API
func (s *AlertService) send(subject, body string) {
	if !s.Enabled() {
		return
	}

	req := emailRequest{
		Sender:      emailAddress{Name: config.AppConfig.ServiceName, Email: s.fromEmail},
		To:          []emailAddress{{Email: s.adminEmail}},
		Subject:     subject,
		TextContent: body,
	}

	payload, err := json.Marshal(req)
	if err != nil {
		logging.Errorf("Failed to marshal alert email: %v", err)
		return
	}

	httpReq, err := http.NewRequest(http.MethodPost, "https://api.brevo.com/v3/smtp/email", bytes.NewBuffer(payload))
	if err != nil {
		logging.Errorf("Failed to create alert request: %v", err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		logging.Errorf("Failed to send admin alert: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		logging.Errorf("Admin alert rejected by Brevo: status %d", resp.StatusCode)
		return
	}

	logging.Infof("Admin alert sent: %s", subject)
}
