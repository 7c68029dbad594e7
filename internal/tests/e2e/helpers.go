// Package e2e drives the storefront over HTTP with real Postgres and an
// in-memory Redis, faking only the third-party APIs.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/creski-storefront/internal/notify"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

// TestClient wraps HTTP calls to the storefront.
type TestClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *TestClient) do(t *testing.T, method, path string, body any, headers map[string]string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (c *TestClient) session(t *testing.T, method, path string, body any) handlers.SessionEnvelope {
	t.Helper()

	status, data := c.do(t, method, path, body, nil)
	require.Less(t, status, 300, "unexpected status %d: %s", status, data)

	var env handlers.SessionEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func (c *TestClient) StartSession(t *testing.T) handlers.SessionEnvelope {
	return c.session(t, http.MethodPost, "/api/sessions", nil)
}

func (c *TestClient) AddItem(t *testing.T, sessionID, name string, price float64) handlers.SessionEnvelope {
	return c.session(t, http.MethodPost, "/api/sessions/"+sessionID+"/items",
		map[string]any{"name": name, "price": price})
}

func (c *TestClient) Checkout(t *testing.T, sessionID string, customer map[string]string) handlers.SessionEnvelope {
	return c.session(t, http.MethodPost, "/api/sessions/"+sessionID+"/checkout",
		map[string]any{"customerDetails": customer})
}

func (c *TestClient) Pay(t *testing.T, sessionID, orderID, paymentID, sig string) handlers.SessionEnvelope {
	return c.session(t, http.MethodPost, "/api/sessions/"+sessionID+"/payment", map[string]any{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
		"razorpay_signature":  sig,
	})
}

func (c *TestClient) Retry(t *testing.T, sessionID string) handlers.SessionEnvelope {
	return c.session(t, http.MethodPost, "/api/sessions/"+sessionID+"/retry", nil)
}

func (c *TestClient) React(t *testing.T, secret string, chatID, messageID int64, emoji string) {
	t.Helper()

	update := map[string]any{
		"update_id": time.Now().UnixNano(),
		"message_reaction": map[string]any{
			"chat":         map[string]any{"id": chatID},
			"message_id":   messageID,
			"new_reaction": []map[string]any{{"type": "emoji", "emoji": emoji}},
		},
	}
	status, _ := c.do(t, http.MethodPost, "/api/webhooks/telegram", update,
		map[string]string{"X-Telegram-Bot-Api-Secret-Token": secret})
	require.Equal(t, http.StatusOK, status)
}

// FakeRazorpay answers POST /v1/orders the way the provider does.
type FakeRazorpay struct {
	*httptest.Server
	seq      atomic.Int64
	mu       sync.Mutex
	requests []application.GatewayOrderRequest
}

func NewFakeRazorpay(keyID, keySecret string) *FakeRazorpay {
	f := &FakeRazorpay{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != keyID || pass != keySecret {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`)
			return
		}
		if r.Method != http.MethodPost || r.URL.Path != "/v1/orders" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req application.GatewayOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(application.GatewayOrder{
			ID:        fmt.Sprintf("order_E2E%06d", f.seq.Add(1)),
			Entity:    "order",
			Amount:    req.Amount,
			Currency:  req.Currency,
			Receipt:   req.Receipt,
			Status:    "created",
			Notes:     req.Notes,
			CreatedAt: time.Now().Unix(),
		})
	}))
	return f
}

func (f *FakeRazorpay) Requests() []application.GatewayOrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]application.GatewayOrderRequest(nil), f.requests...)
}

// FakeTelegram accepts sendMessage and hands out increasing message ids.
type FakeTelegram struct {
	*httptest.Server
	seq   atomic.Int64
	mu    sync.Mutex
	texts []string
}

func NewFakeTelegram(token string) *FakeTelegram {
	f := &FakeTelegram{}
	f.seq.Store(1000)
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/bot"+token+"/sendMessage" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
			return
		}

		var req struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.texts = append(f.texts, req.Text)
		f.mu.Unlock()

		_, _ = fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d}}`, f.seq.Add(1))
	}))
	return f
}

func (f *FakeTelegram) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// Outbox records emails instead of talking to an SMTP relay.
type Outbox struct {
	mu     sync.Mutex
	emails []notify.Email
}

func (o *Outbox) Send(_ context.Context, email notify.Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emails = append(o.emails, email)
	return nil
}

func (o *Outbox) Subjects() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.emails))
	for _, e := range o.emails {
		out = append(out, e.Subject)
	}
	return out
}

func (o *Outbox) WithSubjectPrefix(prefix string) []notify.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []notify.Email
	for _, e := range o.emails {
		if strings.HasPrefix(e.Subject, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// Broker stands in for the Kafka writer.
type Broker struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (b *Broker) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msgs...)
	return nil
}

func (b *Broker) Close() error { return nil }

func (b *Broker) Messages() []kafka.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]kafka.Message(nil), b.msgs...)
}
