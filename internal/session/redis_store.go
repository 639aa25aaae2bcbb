package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"draftbook/api/internal/store"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps auth tokens in Redis instead of the metadata database,
// for deployments that want session churn off the primary store. Each token
// record is one value under a prefixed key; listing walks the prefix with
// SCAN, which keeps the store faithful to the scan-and-filter contract.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "authtoken:"}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "authtoken:"}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) ListAuthTokens(ctx context.Context) ([]store.AuthToken, error) {
	items := make([]store.AuthToken, 0)
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read token: %w", err)
		}
		var token store.AuthToken
		if err := json.Unmarshal([]byte(payload), &token); err != nil {
			return nil, fmt.Errorf("decode token: %w", err)
		}
		items = append(items, token)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan tokens: %w", err)
	}
	return items, nil
}

func (s *RedisStore) SaveAuthToken(ctx context.Context, token store.AuthToken) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := s.client.Set(ctx, s.key(token.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteAuthToken(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
