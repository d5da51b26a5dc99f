//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container for the lifetime of the test.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}
	return client
}

func budgetHeaders(remaining, resetSeconds int) http.Header {
	h := http.Header{}
	h.Set(HeaderRemaining, strconv.Itoa(remaining))
	h.Set(HeaderReset, strconv.Itoa(resetSeconds))
	return h
}

func TestTracker_Integration_StateRoundTrip(t *testing.T) {
	tracker := NewTracker(setupRedis(t), zerolog.Nop())
	ctx := context.Background()

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 100 || !state.IsHealthy {
		t.Errorf("empty Redis: Remaining = %d, healthy = %v; want 100, true", state.Remaining, state.IsHealthy)
	}

	tests := []struct {
		remaining int
		reset     int
		healthy   bool
	}{
		{remaining: 75, reset: 120, healthy: true},
		{remaining: 5, reset: 30, healthy: false},
		{remaining: 1, reset: 45, healthy: false},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.remaining), func(t *testing.T) {
			if err := tracker.UpdateFromHeaders(ctx, budgetHeaders(tt.remaining, tt.reset)); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			state, err := tracker.GetState(ctx)
			if err != nil {
				t.Fatalf("GetState() error = %v", err)
			}
			if state.Remaining != tt.remaining {
				t.Errorf("Remaining = %d, want %d", state.Remaining, tt.remaining)
			}
			if state.IsHealthy != tt.healthy {
				t.Errorf("IsHealthy = %v, want %v", state.IsHealthy, tt.healthy)
			}

			want := time.Duration(tt.reset) * time.Second
			if got := state.TimeUntilReset(); got < want-5*time.Second || got > want {
				t.Errorf("TimeUntilReset = %v, want about %v", got, want)
			}
		})
	}
}

func TestTracker_Integration_ShouldAllowRequest(t *testing.T) {
	tracker := NewTracker(setupRedis(t), zerolog.Nop())
	tracker.SetThrottleDelay(200 * time.Millisecond)
	ctx := context.Background()

	tests := []struct {
		name        string
		remaining   int
		wantAllowed bool
		wantDelay   bool
	}{
		{name: "healthy", remaining: 90, wantAllowed: true},
		{name: "warning", remaining: 5, wantAllowed: true, wantDelay: true},
		{name: "exhausted", remaining: 1, wantAllowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tracker.UpdateFromHeaders(ctx, budgetHeaders(tt.remaining, 60)); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			start := time.Now()
			allowed, err := tracker.ShouldAllowRequest(ctx)
			elapsed := time.Since(start)
			if err != nil {
				t.Fatalf("ShouldAllowRequest() error = %v", err)
			}
			if allowed != tt.wantAllowed {
				t.Errorf("ShouldAllowRequest() = %v, want %v", allowed, tt.wantAllowed)
			}
			if tt.wantDelay && elapsed < 180*time.Millisecond {
				t.Errorf("throttle took %v, want >= 200ms", elapsed)
			}
			if !tt.wantDelay && elapsed > 100*time.Millisecond {
				t.Errorf("took %v, want no throttle", elapsed)
			}
		})
	}
}

func TestTracker_Integration_SharedAcrossTrackers(t *testing.T) {
	rdb := setupRedis(t)
	first := NewTracker(rdb, zerolog.Nop())
	second := NewTracker(rdb, zerolog.Nop())
	ctx := context.Background()

	if err := first.UpdateFromHeaders(ctx, budgetHeaders(1, 60)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	allowed, err := second.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Error("second tracker ignored the budget recorded by the first")
	}
}

func TestTracker_Integration_WindowExpires(t *testing.T) {
	tracker := NewTracker(setupRedis(t), zerolog.Nop())
	ctx := context.Background()

	if err := tracker.UpdateFromHeaders(ctx, budgetHeaders(1, 2)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Fatal("ShouldAllowRequest() = true inside an exhausted window")
	}

	time.Sleep(3 * time.Second)

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.TimeUntilReset() > 0 {
		t.Errorf("TimeUntilReset = %v, want 0 after the window passed", state.TimeUntilReset())
	}

	// An expired window no longer blocks even before new headers arrive.
	allowed, err = tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if !allowed {
		t.Error("ShouldAllowRequest() = false after the reset window expired")
	}
}
