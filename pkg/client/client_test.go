package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huddle-sports/huddle-client/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

// newTestClient creates a client with fast retries against baseURL.
func newTestClient(t *testing.T, baseURL string, redisClient *redis.Client) *Client {
	t.Helper()

	cfg := DefaultConfig(baseURL, "TestApp/1.0.0 (test@example.com)")
	cfg.Redis = redisClient
	cfg.RequestsPerSecond = 0
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 50 * time.Millisecond

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig("https://api.huddle.test/v1", "TestApp/1.0.0"),
			expectError: false,
		},
		{
			name:        "missing base url",
			config:      Config{UserAgent: "TestApp/1.0.0"},
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name:        "relative base url",
			config:      Config{BaseURL: "/v1", UserAgent: "TestApp/1.0.0"},
			expectError: true,
			errorMsg:    `invalid base url "/v1"`,
		},
		{
			name:        "empty user agent",
			config:      Config{BaseURL: "https://api.huddle.test"},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name: "negative retries",
			config: Config{
				BaseURL:    "https://api.huddle.test",
				UserAgent:  "TestApp/1.0.0",
				MaxRetries: -1,
			},
			expectError: true,
			errorMsg:    "max_retries must be >= 0 (got -1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Error("Expected client but got nil")
			}
			if client != nil && client.Cache() != nil {
				t.Error("Cache should be disabled without Redis")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("https://api.huddle.test", "TestApp/1.0.0")

	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RequestsPerSecond != 10 {
		t.Errorf("RequestsPerSecond = %v, want 10", cfg.RequestsPerSecond)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.Redis != nil {
		t.Error("Redis should be optional and unset by default")
	}
}

func TestDo_HeadersSet(t *testing.T) {
	var userAgent, accept, auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		auth = r.Header.Get("Authorization")
		writeData(w, http.StatusOK, nil)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	client.tokens = TokenFunc(func(context.Context) (string, error) { return "secret-token", nil })

	req, err := client.NewRequest(context.Background(), http.MethodGet, "/events", nil, nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	resp.Body.Close()

	if userAgent != client.config.UserAgent {
		t.Errorf("User-Agent = %q, want %q", userAgent, client.config.UserAgent)
	}
	if accept != "application/json" {
		t.Errorf("Accept = %q, want application/json", accept)
	}
	if auth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", auth)
	}
}

func TestDo_AnonymousWithoutToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeData(w, http.StatusOK, nil)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	client.tokens = TokenFunc(func(context.Context) (string, error) { return "", nil })

	if err := client.Get(context.Background(), "/events", nil, nil); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if auth != "" {
		t.Errorf("Authorization = %q, want none", auth)
	}
}

func TestDo_TokenError(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", nil)
	boom := errors.New("keychain locked")
	client.tokens = TokenFunc(func(context.Context) (string, error) { return "", boom })

	err := client.Get(context.Background(), "/events", nil, nil)
	if !errors.Is(err, boom) {
		t.Errorf("Expected token error, got %v", err)
	}
}

func TestDo_BudgetBlock(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeData(w, http.StatusOK, nil)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	headers := http.Header{}
	headers.Set(ratelimit.HeaderRemaining, "0")
	headers.Set(ratelimit.HeaderReset, "60")
	if err := client.Budget().UpdateFromHeaders(context.Background(), headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	err := client.Get(context.Background(), "/events", nil, nil)
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Errorf("Expected ErrBudgetExhausted, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("Blocked request reached the server %d times", calls.Load())
	}
}

func TestDo_BudgetUpdatedFromResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(ratelimit.HeaderRemaining, "42")
		w.Header().Set(ratelimit.HeaderReset, "30")
		writeData(w, http.StatusOK, nil)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	if err := client.Get(context.Background(), "/events", nil, nil); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	state, err := client.Budget().GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 42 {
		t.Errorf("Remaining = %d, want 42", state.Remaining)
	}
}

func TestGet_DecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/events" {
			t.Errorf("path = %q, want /v1/events", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("page query = %q, want 2", r.URL.Query().Get("page"))
		}
		writeData(w, http.StatusOK, map[string]any{"title": "Sunday 5-a-side"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/v1/", nil)

	var out struct {
		Title string `json:"title"`
	}
	err := client.Get(context.Background(), "events", map[string][]string{"page": {"2"}}, &out)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if out.Title != "Sunday 5-a-side" {
		t.Errorf("Title = %q, want decoded data", out.Title)
	}
}

func TestGet_NullData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, nil)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	out := []string{"untouched"}
	if err := client.Get(context.Background(), "/events", nil, &out); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("null data should leave out untouched, got %v", out)
	}
}

func TestGet_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data": [`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	var out []string
	if err := client.Get(context.Background(), "/events", nil, &out); err == nil {
		t.Error("Expected decode error")
	}
}

func TestPost_BodyAndIdempotencyKey(t *testing.T) {
	var mu sync.Mutex
	var keys []string
	var bodies []string
	var attempts int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		attempts++
		n := attempts
		keys = append(keys, r.Header.Get(IdempotencyKeyHeader))
		bodies = append(bodies, string(body))
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeData(w, http.StatusCreated, map[string]string{"id": "evt-1"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	var out struct {
		ID string `json:"id"`
	}
	err := client.Post(context.Background(), "/events", map[string]string{"title": "Padel"}, &out)
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}
	if out.ID != "evt-1" {
		t.Errorf("ID = %q, want evt-1", out.ID)
	}

	if len(keys) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(keys))
	}
	if keys[0] == "" || keys[0] != keys[1] {
		t.Errorf("Idempotency keys = %v, want one non-empty key reused on retry", keys)
	}
	for i, body := range bodies {
		if !strings.Contains(body, `"title":"Padel"`) {
			t.Errorf("attempt %d body = %q, want the JSON payload", i+1, body)
		}
	}
}

func TestDelete_ClientErrorReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"only the organizer can delete"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	err := client.Delete(context.Background(), "/events/evt-1", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", apiErr.StatusCode)
	}
	if apiErr.Message != "only the organizer can delete" {
		t.Errorf("Message = %q, want server message", apiErr.Message)
	}
}

func TestGet_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	err := client.Get(context.Background(), "/auth/me", nil, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestDo_RetryOnServerError(t *testing.T) {
	var attemptCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attemptCount.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeData(w, http.StatusOK, map[string]bool{"success": true})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	if err := client.Get(context.Background(), "/events", nil, nil); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if attemptCount.Load() != 3 {
		t.Errorf("Expected 3 attempts (2 retries), got %d", attemptCount.Load())
	}
}

func TestDo_NoRetryOnClientError(t *testing.T) {
	var attemptCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	req, _ := client.NewRequest(context.Background(), http.MethodGet, "/events/missing", nil, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	if attemptCount.Load() != 1 {
		t.Errorf("Expected 1 attempt (no retry for 4xx), got %d", attemptCount.Load())
	}
}

func TestDo_RetryOnRateLimit(t *testing.T) {
	var attemptCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attemptCount.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeData(w, http.StatusOK, nil)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	if err := client.Get(context.Background(), "/events", nil, nil); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if attemptCount.Load() != 2 {
		t.Errorf("Expected 2 attempts (1 retry), got %d", attemptCount.Load())
	}
}

func TestDo_RetryExhausted(t *testing.T) {
	var attemptCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	err := client.Get(context.Background(), "/events", nil, nil)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	// MaxRetries 3 means 4 attempts in total
	if attemptCount.Load() != 4 {
		t.Errorf("Expected 4 attempts, got %d", attemptCount.Load())
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(t, url, nil)

	err := client.Get(context.Background(), "/events", nil, nil)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorClass != ErrorClassNetwork {
		t.Errorf("Expected network APIError, got %v", err)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Get(ctx, "/events", nil, nil)
	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
}

func TestDo_CacheAndConditionalRequest(t *testing.T) {
	redisClient := setupTestRedis(t)

	var requests, conditional atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.Header().Set("Expires", time.Now().Add(10*time.Minute).Format(http.TimeFormat))
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Cache-Control", "max-age=300")
		writeData(w, http.StatusOK, []string{"a", "b"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, redisClient)
	ctx := context.Background()

	var first, second []string
	if err := client.Get(ctx, "/events", nil, &first); err != nil {
		t.Fatalf("first Get() failed: %v", err)
	}
	if err := client.Get(ctx, "/events", nil, &second); err != nil {
		t.Fatalf("second Get() failed: %v", err)
	}

	if conditional.Load() != 1 {
		t.Errorf("Expected the second request to be conditional, got %d", conditional.Load())
	}
	if len(second) != 2 || second[1] != "b" {
		t.Errorf("304 should be served from cache, got %v", second)
	}
}

func TestDo_FreshEntryWithoutValidatorsServedFromCache(t *testing.T) {
	redisClient := setupTestRedis(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Cache-Control", "max-age=300")
		writeData(w, http.StatusOK, []string{"x"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, redisClient)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		var out []string
		if err := client.Get(ctx, "/sports", nil, &out); err != nil {
			t.Fatalf("Get() #%d failed: %v", i, err)
		}
	}
	if requests.Load() != 1 {
		t.Errorf("Expected 1 server request, got %d", requests.Load())
	}
}

func TestPost_InvalidatesCachedReads(t *testing.T) {
	redisClient := setupTestRedis(t)

	var reads atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			reads.Add(1)
			w.Header().Set("Cache-Control", "max-age=300")
		}
		writeData(w, http.StatusOK, []string{})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, redisClient)
	ctx := context.Background()

	if err := client.Get(ctx, "/events/joined", nil, nil); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if err := client.Post(ctx, "/events/evt-1/join", nil, nil); err != nil {
		t.Fatalf("Post() failed: %v", err)
	}
	if err := client.Get(ctx, "/events/joined", nil, nil); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if reads.Load() != 2 {
		t.Errorf("Expected the join to invalidate the cached read, reads = %d", reads.Load())
	}
}

func TestEndpointLabel(t *testing.T) {
	tests := map[string]string{
		"/events/evt-1/join": "/events",
		"events":             "/events",
		"/":                  "/",
		"/auth/login":        "/auth",
	}
	for in, want := range tests {
		if got := endpointLabel(in); got != want {
			t.Errorf("endpointLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrincipal(t *testing.T) {
	if principal("") != "" {
		t.Error("anonymous principal should be empty")
	}
	a, b := principal("token-a"), principal("token-b")
	if a == b {
		t.Error("different tokens must map to different principals")
	}
	if strings.Contains(a, "token") || len(a) != 12 {
		t.Errorf("principal = %q, want 12 hex chars", a)
	}
}
