package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces session keys in a shared Redis database.
const KeyPrefix = "rewrapped:session:"

// RedisOpts configures [NewRedisClient].
type RedisOpts struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, opts RedisOpts) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisStore is a [Store] that keeps each record as one JSON string.
//
// A SET replaces the whole value, so readers see either the old or the new record.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a store on client. Keys expire after ttl; zero keeps them forever.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return KeyPrefix + sessionID
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (models.TokenRecord, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.TokenRecord{}, fmt.Errorf("%w: session %s", shared.ErrTokenMissing, sessionID)
	}
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}

	var rec models.TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.TokenRecord{}, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return rec, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, rec models.TokenRecord) error {
	if sessionID == "" {
		return fmt.Errorf("%w: empty session id", shared.ErrInvalidArgument)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}
