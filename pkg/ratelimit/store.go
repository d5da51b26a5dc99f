package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// stateStore persists the budget state. Processes sharing a Redis share
// the budget (the CLI and a background sync, for example).
type stateStore interface {
	load(ctx context.Context) (*BudgetState, error)
	save(ctx context.Context, state *BudgetState) error
}

type memoryStore struct {
	mu    sync.Mutex
	state *BudgetState
}

func (m *memoryStore) load(context.Context) (*BudgetState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	s := *m.state
	return &s, nil
}

func (m *memoryStore) save(_ context.Context, state *BudgetState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *state
	m.state = &s
	return nil
}

type redisStore struct {
	redis *redis.Client
}

func (r *redisStore) load(ctx context.Context) (*BudgetState, error) {
	remaining, err := r.redis.Get(ctx, RedisKeyRemaining).Int()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get remaining: %w", err)
	}

	resetTimestamp, err := r.redis.Get(ctx, RedisKeyResetTimestamp).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	lastUpdateStr, err := r.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &BudgetState{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetTimestamp, 0),
		LastUpdate: lastUpdate,
	}
	state.UpdateHealth()
	return state, nil
}

func (r *redisStore) save(ctx context.Context, state *BudgetState) error {
	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	// Keys outlive the window slightly so a stale block can't stick forever.
	ttl := state.TimeUntilReset() + time.Minute

	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRemaining, state.Remaining, ttl)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store budget state in redis: %w", err)
	}
	return nil
}
