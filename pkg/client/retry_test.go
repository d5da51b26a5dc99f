package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastRetry keeps backoff short so tests stay quick.
func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        50 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func serverErr() error {
	return &APIError{StatusCode: 503, ErrorClass: ErrorClassServer, Message: "unavailable"}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", config.MaxAttempts)
	}
	if config.InitialBackoff != 500*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 500ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want 30s", config.MaxBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), fastRetry(3), func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	callCount := 0
	start := time.Now()
	err := retryWithBackoff(context.Background(), fastRetry(3), func() error {
		callCount++
		if callCount < 3 {
			return serverErr()
		}
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
	// 10ms + 20ms with ±20% jitter
	if duration < 20*time.Millisecond {
		t.Errorf("Expected some backoff delay, got %v", duration)
	}
}

func TestRetryWithBackoff_MaxAttemptsExhausted(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), fastRetry(3), func() error {
		callCount++
		return serverErr()
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 503 {
		t.Errorf("Expected wrapped APIError with status 503, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestRetryWithBackoff_ClientErrorNoRetry(t *testing.T) {
	callCount := 0
	clientErr := &APIError{StatusCode: 404, ErrorClass: ErrorClassClient, Message: "not found"}
	err := retryWithBackoff(context.Background(), fastRetry(3), func() error {
		callCount++
		return clientErr
	})

	if !errors.Is(err, clientErr) {
		t.Errorf("Expected the client error unchanged, got %v", err)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("Client errors must not report retry exhaustion")
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call (no retry), got %d", callCount)
	}
}

func TestRetryWithBackoff_PlainErrorIsNetwork(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), fastRetry(2), func() error {
		callCount++
		return errors.New("connection reset")
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	if callCount != 2 {
		t.Errorf("Expected 2 calls, got %d", callCount)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	config := fastRetry(5)
	config.InitialBackoff = time.Second
	config.MaxBackoff = time.Second

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := retryWithBackoff(ctx, config, func() error {
		callCount++
		return serverErr()
	})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", callCount)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Backoff did not stop on cancellation")
	}
}

func TestRetryWithBackoff_ContextCancelledImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	callCount := 0
	err := retryWithBackoff(ctx, fastRetry(3), func() error {
		callCount++
		return nil
	})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
	if callCount != 0 {
		t.Errorf("Expected no calls on a cancelled context, got %d", callCount)
	}
}

func TestRetryWithBackoff_RetryAfterHint(t *testing.T) {
	config := fastRetry(2)
	config.MaxBackoff = 200 * time.Millisecond

	callCount := 0
	start := time.Now()
	err := retryWithBackoff(context.Background(), config, func() error {
		callCount++
		if callCount == 1 {
			return &APIError{StatusCode: 429, ErrorClass: ErrorClassRateLimit, RetryAfter: 100 * time.Millisecond}
		}
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if duration < 100*time.Millisecond {
		t.Errorf("Retry-After not honoured, waited %v", duration)
	}
}

func TestRetryWithBackoff_MaxBackoffCap(t *testing.T) {
	config := RetryConfig{
		MaxAttempts:       2,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        20 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}

	start := time.Now()
	_ = retryWithBackoff(context.Background(), config, func() error {
		return &APIError{StatusCode: 429, ErrorClass: ErrorClassRateLimit, RetryAfter: time.Hour}
	})

	if d := time.Since(start); d > 500*time.Millisecond {
		t.Errorf("Retry-After should be capped by MaxBackoff, waited %v", d)
	}
}

func TestRetryWithBackoff_ZeroAttemptsRunsOnce(t *testing.T) {
	callCount := 0
	_ = retryWithBackoff(context.Background(), RetryConfig{}, func() error {
		callCount++
		return serverErr()
	})

	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}
