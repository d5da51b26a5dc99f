// Package client provides the Huddle HTTP client with request pacing,
// budget tracking, response caching, retries and error classification.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huddle-sports/huddle-client/pkg/cache"
	"github.com/huddle-sports/huddle-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_requests_total",
		Help: "Total Huddle API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "huddle_request_duration_seconds",
		Help:    "Huddle API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_errors_total",
		Help: "Total Huddle API errors by class",
	}, []string{"class"})
)

// IdempotencyKeyHeader carries the key that lets the backend deduplicate retried POSTs.
const IdempotencyKeyHeader = "Idempotency-Key"

// TokenSource supplies the bearer token for authenticated requests.
// An empty token sends the request anonymously.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Client is the Huddle API client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	limiter    *ratelimit.Limiter
	budget     *ratelimit.Tracker
	cache      *cache.Manager
	tokens     TokenSource
	retry      RetryConfig
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, e.g. "https://api.huddle.app/v1" (REQUIRED)
	BaseURL string

	// User-Agent header (REQUIRED)
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Timeout per HTTP attempt
	Timeout time.Duration

	// Redis enables the response cache and shares the request budget
	// between processes. Optional.
	Redis *redis.Client

	// Client-side pacing (RequestsPerSecond <= 0 disables it)
	RequestsPerSecond float64
	Burst             int

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Tokens provides the bearer token. Optional.
	Tokens TokenSource
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:           baseURL,
		UserAgent:         userAgent,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 10,
		Burst:             5,
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
	}
}

// New creates a new Huddle client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	retry := DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxRetries + 1
	if cfg.InitialBackoff > 0 {
		retry.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		retry.MaxBackoff = cfg.MaxBackoff
	}

	logger := log.With().Str("component", "huddle-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: baseURL,
		limiter: ratelimit.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		budget:  ratelimit.NewTracker(cfg.Redis, logger),
		tokens:  cfg.Tokens,
		retry:   retry,
		config:  cfg,
		logger:  logger,
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// NewRequest builds a request against the API base URL. A non-nil body is
// encoded as JSON.
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Do performs an HTTP request with pacing, budget tracking, caching and retries.
// Client errors (4xx) are returned as responses for the caller to handle.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointLabel(c.relativePath(req.URL.Path))

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Client-side pacing
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContextCancelled, err)
	}

	// Step 2: Server-side budget
	allowed, err := c.budget.ShouldAllowRequest(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		}
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by rate limiter")
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, ErrBudgetExhausted
	}

	// Step 3: Authorization
	token := ""
	if c.tokens != nil {
		token, err = c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("get token: %w", err)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// Step 4: Cache lookup and conditional headers
	cacheable := c.cache != nil && req.Method == http.MethodGet
	var cacheKey cache.CacheKey
	var cachedEntry *cache.CacheEntry
	if cacheable {
		cacheKey = cache.CacheKey{
			Endpoint:    c.relativePath(req.URL.Path),
			QueryParams: req.URL.Query(),
			Principal:   principal(token),
		}

		cachedEntry, err = c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}

		// Entries without validators are served only while explicitly fresh
		if cachedEntry != nil && !cache.ShouldMakeConditionalRequest(cachedEntry) && explicitlyFresh(cachedEntry) {
			requestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
			return cache.EntryToResponse(cachedEntry), nil
		}

		if cachedEntry != nil {
			cache.AddConditionalHeaders(req, cachedEntry)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("etag", cachedEntry.ETag).
				Msg("Making conditional request")
		}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	// Step 5: Execute with retry
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing API request")

	var resp *http.Response
	retryErr := retryWithBackoff(ctx, c.retry, func() error {
		attemptReq, err := cloneRequest(req)
		if err != nil {
			return err
		}

		var reqErr error
		resp, reqErr = c.httpClient.Do(attemptReq)
		if reqErr != nil {
			resp = nil
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &APIError{
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        reqErr,
			}
		}

		if err := c.budget.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		if resp.StatusCode == http.StatusNotModified {
			return nil
		}

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("API request error")

			if shouldRetry(errClass) {
				apiErr := newAPIError(resp)
				resp = nil
				return apiErr
			}

			// Client errors go back to the caller unchanged
			return nil
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	})

	if retryErr != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, retryErr
	}

	// Step 6: 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().
			Str("endpoint", endpoint).
			Dur("age", cachedEntry.Age()).
			Msg("304 Not Modified - using cache")
		requestsTotal.WithLabelValues(endpoint, "304").Inc()
		cache.NotModifiedResponses.Inc()

		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}

		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 7: Cache fill
	if cacheable && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// Get performs a GET request and decodes the envelope's data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs a POST request. Every call carries a fresh Idempotency-Key
// that is reused across retries of the same call.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPost, path, nil, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil, out)
}

// envelope is the response wrapper used by every endpoint.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.NewRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if method == http.MethodPost {
		req.Header.Set(IdempotencyKeyHeader, uuid.NewString())
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return newAPIError(resp)
	}

	if method != http.MethodGet {
		c.invalidate(ctx, path)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}

// invalidate drops cached reads under the mutated resource's first path segment.
func (c *Client) invalidate(ctx context.Context, path string) {
	if c.cache == nil {
		return
	}
	prefix := endpointLabel(path)
	deleted, err := c.cache.Invalidate(ctx, prefix)
	if err != nil {
		c.logger.Warn().Err(err).Str("prefix", prefix).Msg("Cache invalidation failed")
		return
	}
	if deleted > 0 {
		c.logger.Debug().Str("prefix", prefix).Int("deleted", deleted).Msg("Invalidated cached responses")
	}
}

// relativePath strips the base URL path from a request path.
func (c *Client) relativePath(p string) string {
	return "/" + strings.TrimLeft(strings.TrimPrefix(p, c.baseURL.Path), "/")
}

// endpointLabel reduces a path to its first segment to bound metric cardinality.
func endpointLabel(path string) string {
	trimmed := strings.Trim(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}

// principal is a short, non-reversible identifier for a token.
func principal(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}

// explicitlyFresh reports whether the server set a lifetime for the entry.
func explicitlyFresh(entry *cache.CacheEntry) bool {
	return entry.Headers.Get("Expires") != "" ||
		strings.Contains(entry.Headers.Get("Cache-Control"), "max-age")
}

// cloneRequest copies req for one attempt, rewinding the body.
func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		clone.Body = body
	}
	return clone, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Cache returns the cache manager, or nil when caching is disabled.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}

// Budget returns the request budget tracker.
func (c *Client) Budget() *ratelimit.Tracker {
	return c.budget
}
