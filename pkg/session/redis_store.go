package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AttemptKeyPrefix namespaces attempt keys in Redis.
const AttemptKeyPrefix = "device-idm:attempt:"

// RedisStore implements Store on Redis, using key expiry for the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed attempt store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultAttemptTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// ConnectRedis parses redisURL, applies pool settings and checks connectivity.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func attemptKey(id uuid.UUID) string {
	return AttemptKeyPrefix + id.String()
}

// Save stores the attempt as JSON with the configured expiry.
func (s *RedisStore) Save(ctx context.Context, attempt Attempt) error {
	attempt.ExpiresAt = time.Now().UTC().Add(s.ttl)
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}
	if err := s.client.Set(ctx, attemptKey(attempt.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	slog.Debug("Attempt saved to redis", "attemptID", attempt.ID, "node", attempt.Node)
	return nil
}

// Load returns the attempt or ErrAttemptNotFound.
func (s *RedisStore) Load(ctx context.Context, id uuid.UUID) (Attempt, error) {
	data, err := s.client.Get(ctx, attemptKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Attempt{}, ErrAttemptNotFound
	}
	if err != nil {
		return Attempt{}, fmt.Errorf("failed to load attempt: %w", err)
	}

	var attempt Attempt
	if err := json.Unmarshal(data, &attempt); err != nil {
		return Attempt{}, fmt.Errorf("failed to unmarshal attempt: %w", err)
	}
	return attempt, nil
}

// Delete removes the attempt.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, attemptKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete attempt: %w", err)
	}
	return nil
}
