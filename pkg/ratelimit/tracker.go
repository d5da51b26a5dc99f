package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Response headers carrying the server-side budget.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// DefaultThrottleDelay is slept before a request while the budget is in the warning range.
const DefaultThrottleDelay = 1 * time.Second

// Prometheus metrics for budget tracking.
var (
	budgetRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "huddle_rate_limit_remaining",
		Help: "Requests remaining in the current API rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_rate_limit_blocks_total",
		Help: "Total number of requests blocked due to an exhausted budget",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_rate_limit_throttles_total",
		Help: "Total number of requests throttled due to a low budget",
	})
)

// Tracker monitors the server-side request budget and gates requests.
type Tracker struct {
	store         stateStore
	logger        zerolog.Logger
	throttleDelay time.Duration
}

// NewTracker creates a tracker. With a nil redisClient the state is kept in memory.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	var store stateStore = &memoryStore{}
	if redisClient != nil {
		store = &redisStore{redis: redisClient}
	}
	return &Tracker{
		store:         store,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
	}
}

// SetThrottleDelay overrides the warning-range delay.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// GetState returns the current budget state, or a default healthy state
// when no response with budget headers has been seen.
func (t *Tracker) GetState(ctx context.Context) (*BudgetState, error) {
	state, err := t.store.load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		t.logger.Debug().Msg("No rate limit state yet, returning default healthy state")
		return defaultState(), nil
	}
	return state, nil
}

// UpdateFromHeaders parses the budget headers of a response and stores the state.
// Responses without the headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}

	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	now := time.Now()
	state := &BudgetState{
		Remaining:  remain,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()

	if err := t.store.save(ctx, state); err != nil {
		return err
	}

	budgetRemaining.Set(float64(remain))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Bool("is_healthy", state.IsHealthy).
			Msg("API rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent. It returns false
// while the budget is exhausted and sleeps ThrottleDelay in the warning range.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("API rate limit critical - blocking request")

		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("API rate limit warning - throttling request")

		rateLimitThrottlesTotal.Inc()
		timer := time.NewTimer(t.throttleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}
