package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com")

		if c.baseURL != "https://api.example.com" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com")
		}
		if c.headers["Accept"] != "application/json" {
			t.Errorf("Accept = %q, want %q", c.headers["Accept"], "application/json")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 0 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 0)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with timeout option", func(t *testing.T) {
		c := NewClient("https://api.example.com", WithTimeout(5*time.Second))
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
	})

	t.Run("with retries option", func(t *testing.T) {
		c := NewClient("https://api.example.com", WithRetries(5, 2*time.Second))
		if c.maxRetries != 5 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 5)
		}
		if c.retryBackoff != 2*time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 2*time.Second)
		}
	})

	t.Run("with logger option", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("https://api.example.com", WithLogger(logger))
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
	})

	t.Run("with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("https://api.example.com", WithHTTPClient(customClient))
		if c.httpClient != customClient {
			t.Error("custom HTTP client not set")
		}
	})

	t.Run("with headers copies the map", func(t *testing.T) {
		h := map[string]string{"Referer": "https://coinmarketcap.com/"}
		c := NewClient("https://api.example.com", WithHeaders(h))
		h["Referer"] = "mutated"
		if c.headers["Referer"] != "https://coinmarketcap.com/" {
			t.Errorf("Referer = %q, want %q", c.headers["Referer"], "https://coinmarketcap.com/")
		}
		if _, ok := c.headers["Accept"]; ok {
			t.Error("WithHeaders should replace the default set")
		}
	})
}

// TestAPIError tests the APIError type.
func TestAPIError(t *testing.T) {
	t.Run("Error method", func(t *testing.T) {
		err := &APIError{
			StatusCode: 404,
			Message:    "Not Found",
			Body:       []byte(`{"error": "coin not found"}`),
		}
		expected := "api error 404: Not Found"
		if err.Error() != expected {
			t.Errorf("Error() = %q, want %q", err.Error(), expected)
		}
	})

	t.Run("IsRetryable for 5xx errors", func(t *testing.T) {
		tests := []struct {
			code     int
			expected bool
		}{
			{500, true},
			{502, true},
			{503, true},
			{504, true},
			{429, true},
			{400, false},
			{401, false},
			{403, false},
			{404, false},
			{499, false},
		}

		for _, tt := range tests {
			err := &APIError{StatusCode: tt.code}
			if got := err.IsRetryable(); got != tt.expected {
				t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.expected)
			}
		}
	})

	t.Run("StatusOf unwraps", func(t *testing.T) {
		wrapped := fmt.Errorf("get simple price bitcoin: %w", &APIError{StatusCode: 503})
		if got := StatusOf(wrapped); got != 503 {
			t.Errorf("StatusOf(wrapped) = %d, want 503", got)
		}
		if got := StatusOf(errors.New("dial tcp: refused")); got != 0 {
			t.Errorf("StatusOf(plain) = %d, want 0", got)
		}
	})
}

// TestDoRequest tests the HTTP request functionality.
func TestDoRequest(t *testing.T) {
	t.Run("successful request sends configured headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Referer") != "https://coinmarketcap.com/" {
				t.Errorf("Referer header = %q, want %q", r.Header.Get("Referer"), "https://coinmarketcap.com/")
			}
			if r.Header.Get("Sec-Fetch-Mode") != "cors" {
				t.Errorf("Sec-Fetch-Mode header = %q, want %q", r.Header.Get("Sec-Fetch-Mode"), "cors")
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithHeaders(ListingHeaders))
		body, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"status": "ok"}` {
			t.Errorf("body = %q, want %q", string(body), `{"status": "ok"}`)
		}
	})

	t.Run("request with query parameters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("ids") != "bitcoin" {
				t.Errorf("ids = %q, want %q", r.URL.Query().Get("ids"), "bitcoin")
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		query := make(map[string][]string)
		query["ids"] = []string{"bitcoin"}
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", query)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("4xx error returns APIError with body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "not found"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}

		apiErr, ok := err.(*APIError)
		if !ok {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != 404 {
			t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, 404)
		}
		if !strings.Contains(string(apiErr.Body), "not found") {
			t.Errorf("Body should contain 'not found', got %q", string(apiErr.Body))
		}
	})

	t.Run("non-2xx success class is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotModified)
		}))
		defer server.Close()

		c := NewClient(server.URL)
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil)
		if got := StatusOf(err); got != http.StatusNotModified {
			t.Errorf("StatusOf(err) = %d, want %d", got, http.StatusNotModified)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := NewClient(server.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		_, err := c.doRequest(ctx, http.MethodGet, "/test", nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "context canceled") {
			t.Errorf("error should contain 'context canceled', got %v", err)
		}
	})
}

// TestDoWithRetry tests the retry logic.
func TestDoWithRetry(t *testing.T) {
	t.Run("succeeds on first try", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, 10*time.Millisecond))
		body, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"ok": true}` {
			t.Errorf("body = %q, want %q", string(body), `{"ok": true}`)
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("retries on 5xx and succeeds", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&attempts, 1)
			if n < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`error`))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, 10*time.Millisecond))
		body, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"ok": true}` {
			t.Errorf("body = %q, want %q", string(body), `{"ok": true}`)
		}
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("retries on 429 and succeeds", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&attempts, 1)
			if n == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`rate limited`))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, 10*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 2 {
			t.Errorf("attempts = %d, want 2", attempts)
		}
	})

	t.Run("does not retry on 4xx (except 429)", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`bad request`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, 10*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`error`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(2, 10*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "max retries exceeded") {
			t.Errorf("error should contain 'max retries exceeded', got %v", err)
		}
		// 1 initial + 2 retries = 3 attempts
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("context cancellation during retry", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(5, 50*time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
		defer cancel()

		_, err := c.doWithRetry(ctx, http.MethodGet, "/test", nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "context") {
			t.Errorf("error should be context-related, got %v", err)
		}
	})

	t.Run("no retries by default", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		c := NewClient(server.URL)
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if got := StatusOf(err); got != http.StatusServiceUnavailable {
			t.Errorf("StatusOf(err) = %d, want %d", got, http.StatusServiceUnavailable)
		}
		if strings.Contains(err.Error(), "max retries") {
			t.Errorf("single attempt should not report retries, got %v", err)
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})
}

// TestGetSimplePrice tests the price oracle endpoint.
func TestGetSimplePrice(t *testing.T) {
	t.Run("successful response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/simple/price" {
				t.Errorf("path = %q, want %q", r.URL.Path, "/simple/price")
			}
			q := r.URL.Query()
			if q.Get("ids") != "bitcoin" || q.Get("vs_currencies") != "usd" || q.Get("include_last_updated_at") != "true" {
				t.Errorf("query = %q", r.URL.RawQuery)
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"bitcoin":{"usd":67234.567,"last_updated_at":1714564800}}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithHeaders(OracleHeaders))
		p, err := c.GetSimplePrice(context.Background(), "bitcoin", "usd")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Value.String() != "67234.567" {
			t.Errorf("Value = %s, want 67234.567", p.Value)
		}
		if p.Stamp() != "2024-05-01T12:00:00" {
			t.Errorf("Stamp() = %q, want %q", p.Stamp(), "2024-05-01T12:00:00")
		}
	})

	t.Run("missing asset", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		_, err := c.GetSimplePrice(context.Background(), "bitcoin", "usd")
		if err == nil || !strings.Contains(err.Error(), `"bitcoin" missing`) {
			t.Errorf("err = %v, want missing asset error", err)
		}
	})

	t.Run("server error keeps status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`upstream down`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		_, err := c.GetSimplePrice(context.Background(), "bitcoin", "usd")
		if got := StatusOf(err); got != 500 {
			t.Errorf("StatusOf(err) = %d, want 500", got)
		}
	})
}

func TestSimplePriceResponse_Point(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"ok", `{"bitcoin":{"usd":1,"last_updated_at":1}}`, false},
		{"missing currency", `{"bitcoin":{"eur":1,"last_updated_at":1}}`, true},
		{"missing timestamp", `{"bitcoin":{"usd":1}}`, true},
		{"fractional timestamp", `{"bitcoin":{"usd":1,"last_updated_at":1.5}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := json.NewDecoder(strings.NewReader(tt.body))
			dec.UseNumber()
			var resp SimplePriceResponse
			if err := dec.Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			_, err := resp.Point("bitcoin", "usd")
			if (err != nil) != tt.wantErr {
				t.Errorf("Point() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestGetListing tests the listing endpoint and row zipping.
func TestGetListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generated/core/crypto/cryptos.json" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/generated/core/crypto/cryptos.json")
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"fields": ["id", "name", "symbol", "slug", "is_active", "rank"],
			"values": [
				[1, "Bitcoin", "BTC", "bitcoin", 1, 1],
				[1027, "Ethereum", "ETH", "ethereum", 1, 2],
				[825, "Tether USDt", "USDT", "tether", 1, 3]
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithHeaders(ListingHeaders))
	listing, err := c.GetListing(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := listing.Rows(2)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[1]["id"] != "1027" {
		t.Errorf("rows[1][id] = %q, want %q", rows[1]["id"], "1027")
	}
	if rows[1]["name"] != "Ethereum" {
		t.Errorf("rows[1][name] = %q, want %q", rows[1]["name"], "Ethereum")
	}

	if all := listing.Rows(0); len(all) != 3 {
		t.Errorf("len(Rows(0)) = %d, want 3", len(all))
	}
}

func TestListingRows_ShortRow(t *testing.T) {
	listing := &ListingResponse{
		Fields: []string{"id", "name", "symbol"},
		Values: [][]any{{json.Number("5"), "Solo"}},
	}

	rows := listing.Rows(10)
	if _, ok := rows[0]["symbol"]; ok {
		t.Error("short row should not carry a symbol key")
	}
	if rows[0]["id"] != "5" {
		t.Errorf("id = %q, want 5", rows[0]["id"])
	}
}

// TestGetDetail tests the detail endpoint.
func TestGetDetail(t *testing.T) {
	t.Run("successful response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/data-api/v3/cryptocurrency/detail/lite" {
				t.Errorf("path = %q", r.URL.Path)
			}
			if r.URL.Query().Get("id") != "1027" {
				t.Errorf("id = %q, want 1027", r.URL.Query().Get("id"))
			}
			w.Write([]byte(`{"data":{"id":1027,"name":"Ethereum","statistics":{"price":3012.4512,"priceChangePercentage24h":-1.25,"marketCap":362000000000.5}}}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithHeaders(DetailHeaders))
		stats, err := c.GetDetail(context.Background(), "1027")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		fields := stats.Fields()
		if fields[FieldPrice] != "3012.4512" {
			t.Errorf("price = %q, want %q", fields[FieldPrice], "3012.4512")
		}
		if fields[FieldChange24h] != "-1.25" {
			t.Errorf("change = %q, want %q", fields[FieldChange24h], "-1.25")
		}
		if fields[FieldMarketCap] != "362000000000.5" {
			t.Errorf("market cap = %q, want %q", fields[FieldMarketCap], "362000000000.5")
		}
	})

	t.Run("null statistic is absent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"statistics":{"price":1.0,"priceChangePercentage24h":null}}}`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		stats, err := c.GetDetail(context.Background(), "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		fields := stats.Fields()
		if _, ok := fields[FieldChange24h]; ok {
			t.Error("null change should be absent")
		}
		if _, ok := fields[FieldMarketCap]; ok {
			t.Error("missing market cap should be absent")
		}
	})
}

// TestJSONUnmarshalErrors tests handling of malformed JSON responses.
func TestJSONUnmarshalErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.GetListing(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unmarshal response") {
		t.Errorf("error should mention unmarshal, got %v", err)
	}
}
