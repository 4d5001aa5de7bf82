package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps cache entries in Redis. Entries carry server-side
// expiry matching their TTL, so a hit is fresh by construction; CreatedAt
// is still stored for the handler's uniform freshness check.
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
		return nil, fmt.Errorf("ping redis cache store: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func redisKey(userID, endpoint, inputHash string) string {
	return "agentcache:" + userID + ":" + endpoint + ":" + inputHash
}

type redisEntry struct {
	Payload    json.RawMessage `json:"payload"`
	TTLSeconds int64           `json:"ttl_seconds"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Get loads an entry, or (nil, nil) when absent or expired server-side.
func (s *RedisStore) Get(ctx context.Context, userID, endpoint, inputHash string) (*Entry, error) {
	raw, err := s.client.Get(ctx, redisKey(userID, endpoint, inputHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	var re redisEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &Entry{
		UserID:    userID,
		Endpoint:  endpoint,
		InputHash: inputHash,
		Payload:   re.Payload,
		TTL:       time.Duration(re.TTLSeconds) * time.Second,
		CreatedAt: re.CreatedAt,
	}, nil
}

// Put upserts an entry with expiry equal to its TTL.
func (s *RedisStore) Put(ctx context.Context, entry Entry) error {
	raw, err := json.Marshal(redisEntry{
		Payload:    entry.Payload,
		TTLSeconds: int64(entry.TTL / time.Second),
		CreatedAt:  entry.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	key := redisKey(entry.UserID, entry.Endpoint, entry.InputHash)
	if err := s.client.Set(ctx, key, raw, entry.TTL).Err(); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
