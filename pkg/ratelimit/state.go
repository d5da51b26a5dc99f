// Package ratelimit paces requests to the Huddle API. It combines a local
// token bucket with tracking of the server-side request budget announced in
// the X-RateLimit-Remaining and X-RateLimit-Reset response headers.
package ratelimit

import (
	"time"
)

// Redis keys for budget state storage.
const (
	RedisKeyRemaining      = "huddle:rate_limit:remaining"
	RedisKeyResetTimestamp = "huddle:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "huddle:rate_limit:last_update"
)

// Thresholds for rate limit decisions.
const (
	// BudgetThresholdCritical blocks all requests when the remaining budget falls below this value.
	BudgetThresholdCritical = 2

	// BudgetThresholdWarning applies throttling when the remaining budget falls below this value.
	BudgetThresholdWarning = 10

	// BudgetThresholdHealthy indicates normal operation.
	BudgetThresholdHealthy = 25
)

// BudgetState represents the server-side request budget of the current window.
type BudgetState struct {
	// Remaining is the number of requests left in the window (X-RateLimit-Remaining).
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets (now + X-RateLimit-Reset seconds).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last updated.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= BudgetThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *BudgetState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// WindowExpired reports whether the reset time has passed, making Remaining meaningless.
func (s *BudgetState) WindowExpired() bool {
	return !s.ResetAt.IsZero() && time.Now().After(s.ResetAt)
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *BudgetState) NeedsCriticalBlock() bool {
	return s.Remaining < BudgetThresholdCritical && !s.WindowExpired()
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *BudgetState) NeedsThrottling() bool {
	return s.Remaining < BudgetThresholdWarning && !s.NeedsCriticalBlock() && !s.WindowExpired()
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *BudgetState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *BudgetState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= BudgetThresholdHealthy
}

// defaultState is assumed until the first response with budget headers arrives.
func defaultState() *BudgetState {
	now := time.Now()
	return &BudgetState{
		Remaining:  100,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}
