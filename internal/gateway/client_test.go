package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		BaseURL:         baseURL,
		APISecret:       "test-secret",
		WhatsAppAccount: "wa-account-1",
		httpClient:      &http.Client{Timeout: 2 * time.Second},
	}
}

func TestFetchNotificationsBareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/get/notifications", r.URL.Path)
		assert.Equal(t, "test-secret", r.URL.Query().Get("secret"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "n1", "content": "received Rs 500", "title": "easypaisa", "timestamp": "2026-05-01T12:00:00Z"},
			{"id": "n2", "content": "", "title": "promo"}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	messages, err := client.FetchNotifications(context.Background())
	require.NoError(t, err)

	// The empty-text entry is dropped
	require.Len(t, messages, 1)
	assert.Equal(t, "n1", messages[0].ID)
	assert.Equal(t, "received Rs 500", messages[0].Text)
	assert.Equal(t, "easypaisa", messages[0].Sender)
	assert.Equal(t, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), messages[0].Timestamp)
}

func TestFetchNotificationsDataWrapper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 200, "data": [{"id": "n1", "message": "payment of 1000", "sender": "8558"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	messages, err := client.FetchNotifications(context.Background())
	require.NoError(t, err)

	require.Len(t, messages, 1)
	assert.Equal(t, "payment of 1000", messages[0].Text)
	assert.Equal(t, "8558", messages[0].Sender)
}

func TestFetchSmsMessagesNestedArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/get/sms.received", r.URL.Path)
		w.Write([]byte(`{"status": 200, "messages": [{"message": "JazzCash: received 1000", "from": "8558"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	messages, err := client.FetchSmsMessages(context.Background())
	require.NoError(t, err)

	require.Len(t, messages, 1)
	assert.Equal(t, "JazzCash: received 1000", messages[0].Text)
	assert.Equal(t, "8558", messages[0].Sender)
	// Missing id gets a generated one so dedup still has a handle
	assert.NotEmpty(t, messages[0].ID)
}

func TestFetchFeedNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchNotifications(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestFetchFeedMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchSmsMessages(context.Background())
	require.Error(t, err)
}

func TestSendSms(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/send/sms", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.SendSms(context.Background(), "+923001234567", "Payment verified")
	require.NoError(t, err)

	assert.Equal(t, "test-secret", got["secret"])
	assert.Equal(t, "+923001234567", got["phone"])
	assert.Equal(t, "Payment verified", got["message"])
}

func TestSendSmsFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.SendSms(context.Background(), "+923001234567", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestSendWhatsAppMultipartFields(t *testing.T) {
	var fields map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/send/whatsapp", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fields = map[string]string{}
		for key := range r.MultipartForm.Value {
			fields[key] = r.FormValue(key)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.SendWhatsApp(context.Background(), "+923001234567", "✅ Payment verified")
	require.NoError(t, err)

	assert.Equal(t, "test-secret", fields["secret"])
	assert.Equal(t, "wa-account-1", fields["account"])
	assert.Equal(t, "+923001234567", fields["recipient"])
	assert.Equal(t, "text", fields["type"])
	assert.Equal(t, "✅ Payment verified", fields["message"])
}
