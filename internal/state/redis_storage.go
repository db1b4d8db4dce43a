package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const userPendingKeyPattern = "user:pending:%d"

// RedisStorage persists continuations in Redis so they survive restarts and
// are shared across bot instances.
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

func (s *RedisStorage) Get(ctx context.Context, userID int64) (*Pending, error) {
	raw, err := s.client.Get(ctx, fmt.Sprintf(userPendingKeyPattern, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pending continuation: %w", err)
	}

	var pending Pending
	if err := json.Unmarshal(raw, &pending); err != nil {
		return nil, fmt.Errorf("unmarshal pending continuation: %w", err)
	}

	return &pending, nil
}

func (s *RedisStorage) Set(ctx context.Context, userID int64, pending *Pending) error {
	raw, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending continuation: %w", err)
	}

	if err := s.client.Set(ctx, fmt.Sprintf(userPendingKeyPattern, userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("set pending continuation: %w", err)
	}

	return nil
}

func (s *RedisStorage) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, fmt.Sprintf(userPendingKeyPattern, userID)).Err(); err != nil {
		return fmt.Errorf("clear pending continuation: %w", err)
	}

	return nil
}

func (s *RedisStorage) All(ctx context.Context) ([]*Pending, error) {
	var (
		out    []*Pending
		cursor uint64
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, "user:pending:*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan pending continuations: %w", err)
		}

		for _, key := range keys {
			raw, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return nil, fmt.Errorf("get pending continuation %s: %w", key, err)
			}

			var pending Pending
			if err := json.Unmarshal(raw, &pending); err != nil {
				return nil, fmt.Errorf("unmarshal pending continuation %s: %w", key, err)
			}

			out = append(out, &pending)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return out, nil
}
