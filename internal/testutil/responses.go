package testutil

import (
	"net/http"
	"strconv"
	"time"
)

// NewHealthyResponse creates a 200 OK response wrapping data in the envelope.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data":` + data + `}`,
		Headers: map[string]string{
			"ETag":         `"test-etag-123"`,
			"Expires":      time.Now().Add(5 * time.Minute).Format(http.TimeFormat),
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter time.Duration) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message": "rate limit exceeded"}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(int(retryAfter / time.Second)),
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewSlowResponse delays a healthy response.
func NewSlowResponse(data string, delay time.Duration) MockResponse {
	resp := NewHealthyResponse(data)
	resp.Delay = delay
	return resp
}
