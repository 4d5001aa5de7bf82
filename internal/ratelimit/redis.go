package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists bucket rows in Redis. Rows are kept for two full
// windows past their last refill so idle buckets age out on their own.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at addr (host:port).
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis rate-limit store: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func redisStateKey(userID, endpoint string) string {
	return "agentrl:" + userID + ":" + endpoint
}

type redisState struct {
	Tokens        int       `json:"tokens"`
	WindowSeconds int64     `json:"window_seconds"`
	LastRefill    time.Time `json:"last_refill"`
}

// Load returns the stored row or (nil, nil) when absent.
func (s *RedisStore) Load(ctx context.Context, userID, endpoint string) (*State, error) {
	raw, err := s.client.Get(ctx, redisStateKey(userID, endpoint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rate-limit row: %w", err)
	}

	var rs redisState
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("decode rate-limit row: %w", err)
	}
	return &State{
		UserID:     userID,
		Endpoint:   endpoint,
		Tokens:     rs.Tokens,
		Window:     time.Duration(rs.WindowSeconds) * time.Second,
		LastRefill: rs.LastRefill,
	}, nil
}

// Save upserts the bucket row.
func (s *RedisStore) Save(ctx context.Context, state State) error {
	raw, err := json.Marshal(redisState{
		Tokens:        state.Tokens,
		WindowSeconds: int64(state.Window / time.Second),
		LastRefill:    state.LastRefill.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode rate-limit row: %w", err)
	}
	key := redisStateKey(state.UserID, state.Endpoint)
	if err := s.client.Set(ctx, key, raw, 2*state.Window).Err(); err != nil {
		return fmt.Errorf("write rate-limit row: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
