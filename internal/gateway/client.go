package gateway

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"payment-verification-api/internal/config"
)

// RawMessage is the uniform shape both feeds are normalized into. It lives
// only within one reconciliation pass and is never persisted.
type RawMessage struct {
	ID        string
	Text      string
	Sender    string
	Timestamp time.Time
}

// Client talks to the upstream messaging gateway: the polled notification and
// SMS feeds, and the outbound SMS/WhatsApp send endpoints.
type Client struct {
	BaseURL         string
	APISecret       string
	WhatsAppAccount string

	httpClient *http.Client
}

// NewClient creates a gateway client from the application configuration
func NewClient() *Client {
	return &Client{
		BaseURL:         config.AppConfig.GatewayBaseURL,
		APISecret:       config.AppConfig.GatewayAPISecret,
		WhatsAppAccount: config.AppConfig.WhatsAppAccount,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchNotifications pulls captured app notifications from the gateway.
// Notifications carry their text in content/message and their sender in
// title/sender depending on the capturing device.
func (c *Client) FetchNotifications(ctx context.Context) ([]RawMessage, error) {
	items, err := c.fetchFeed(ctx, "/api/get/notifications")
	if err != nil {
		return nil, err
	}

	messages := make([]RawMessage, 0, len(items))
	for _, item := range items {
		msg := RawMessage{
			ID:        stringField(item, "id"),
			Text:      stringField(item, "content", "message"),
			Sender:    stringField(item, "title", "sender"),
			Timestamp: timeField(item, "timestamp"),
		}
		if msg.Text == "" {
			continue
		}
		if msg.ID == "" {
			msg.ID = randomID()
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// FetchSmsMessages pulls received SMS from the gateway
func (c *Client) FetchSmsMessages(ctx context.Context) ([]RawMessage, error) {
	items, err := c.fetchFeed(ctx, "/api/get/sms.received")
	if err != nil {
		return nil, err
	}

	messages := make([]RawMessage, 0, len(items))
	for _, item := range items {
		msg := RawMessage{
			ID:        stringField(item, "id"),
			Text:      stringField(item, "message", "content", "text"),
			Sender:    stringField(item, "sender", "from", "title"),
			Timestamp: timeField(item, "timestamp"),
		}
		if msg.Text == "" {
			continue
		}
		if msg.ID == "" {
			msg.ID = randomID()
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// fetchFeed issues the GET and decodes whichever of the gateway's response
// shapes comes back: a bare array, {"data": [...]}, or an object with the
// array buried under some other key (largest array wins).
func (c *Client) fetchFeed(ctx context.Context, path string) ([]map[string]interface{}, error) {
	endpoint := c.BaseURL + path + "?" + url.Values{"secret": {c.APISecret}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return extractItems(payload), nil
}

// extractItems finds the message array inside an arbitrarily shaped response
func extractItems(payload interface{}) []map[string]interface{} {
	var raw []interface{}

	switch v := payload.(type) {
	case []interface{}:
		raw = v
	case map[string]interface{}:
		if data, ok := v["data"].([]interface{}); ok {
			raw = data
		} else {
			// Use the largest array found anywhere in the object
			for _, val := range v {
				if arr, ok := val.([]interface{}); ok && len(arr) > len(raw) {
					raw = arr
				}
			}
		}
	}

	items := make([]map[string]interface{}, 0, len(raw))
	for _, entry := range raw {
		if item, ok := entry.(map[string]interface{}); ok {
			items = append(items, item)
		}
	}
	return items
}

// SendSms sends an SMS through the gateway
func (c *Client) SendSms(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"secret":  c.APISecret,
		"phone":   phone,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal SMS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/send/sms", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SMS send returned status %d", resp.StatusCode)
	}
	return nil
}

// SendWhatsApp sends a WhatsApp text message through the gateway. The
// recipient phone must be in +923XXXXXXXXX format.
func (c *Client) SendWhatsApp(ctx context.Context, phone, message string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"secret":    c.APISecret,
		"account":   c.WhatsAppAccount,
		"recipient": phone,
		"type":      "text",
		"message":   message,
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/send/whatsapp", &buf)
	if err != nil {
		return fmt.Errorf("failed to create WhatsApp request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send WhatsApp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("WhatsApp send returned status %d", resp.StatusCode)
	}
	return nil
}

func stringField(item map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := item[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func timeField(item map[string]interface{}, key string) time.Time {
	if value, ok := item[key].(string); ok {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			return ts
		}
	}
	return time.Now()
}

func randomID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
