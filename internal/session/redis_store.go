package session

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

const languageKeyPattern = "user:lang:%d"

// RedisStore persists session language in Redis so sessions survive restarts.
type RedisStore struct {
	client      *redis.Client
	defaultLang string
}

// NewRedisStore builds a RedisStore with the given default language.
func NewRedisStore(client *redis.Client, defaultLang string) *RedisStore {
	return &RedisStore{
		client:      client,
		defaultLang: defaultLang,
	}
}

func (s *RedisStore) Language(ctx context.Context, userID int64) (string, error) {
	code, err := s.client.Get(ctx, languageKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return s.defaultLang, nil
		}
		return "", fmt.Errorf("get session language: %w", err)
	}

	return code, nil
}

func (s *RedisStore) SetLanguage(ctx context.Context, userID int64, code string) error {
	// Sessions have no eviction policy, so the key does not expire.
	if err := s.client.Set(ctx, languageKey(userID), code, 0).Err(); err != nil {
		return fmt.Errorf("set session language: %w", err)
	}

	return nil
}

func languageKey(userID int64) string {
	return fmt.Sprintf(languageKeyPattern, userID)
}
