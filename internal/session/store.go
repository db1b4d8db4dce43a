// Package session keeps per-user preferences, currently just the active
// language. Sessions are created lazily on first reference and live for the
// process lifetime; only the language flow mutates them.
package session

import (
	"context"
	"sync"
)

// Store is the per-user session registry keyed by Telegram user ID.
type Store interface {
	// Language returns the user's active language, or defaultLang when the
	// user has never picked one.
	Language(ctx context.Context, userID int64) (string, error)
	// SetLanguage records the user's language choice.
	SetLanguage(ctx context.Context, userID int64, code string) error
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu          sync.RWMutex
	languages   map[int64]string
	defaultLang string
}

// NewMemoryStore builds a MemoryStore with the given default language.
func NewMemoryStore(defaultLang string) *MemoryStore {
	return &MemoryStore{
		languages:   make(map[int64]string),
		defaultLang: defaultLang,
	}
}

func (s *MemoryStore) Language(ctx context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if code, ok := s.languages[userID]; ok {
		return code, nil
	}

	return s.defaultLang, nil
}

func (s *MemoryStore) SetLanguage(ctx context.Context, userID int64, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.languages[userID] = code
	return nil
}
