// Package state manages the per-user conversational state machine: the single
// pending continuation each user may hold between stateless message deliveries.
package state

import (
	"context"
	"sync"
)

// Storage defines the persistence contract for pending continuations.
type Storage interface {
	// Get returns the pending continuation for the specified user.
	Get(ctx context.Context, userID int64) (*Pending, error)
	// Set saves the provided continuation for the specified user, replacing
	// any existing one.
	Set(ctx context.Context, userID int64, pending *Pending) error
	// Clear removes the continuation for the specified user.
	Clear(ctx context.Context, userID int64) error
	// All returns every stored continuation.
	All(ctx context.Context) ([]*Pending, error)
}

// MemoryStorage is the in-process Storage implementation.
type MemoryStorage struct {
	mu      sync.RWMutex
	pending map[int64]*Pending
}

// NewMemoryStorage builds an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{pending: make(map[int64]*Pending)}
}

func (s *MemoryStorage) Get(ctx context.Context, userID int64) (*Pending, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending, ok := s.pending[userID]
	if !ok {
		return nil, ErrNotFound
	}

	return clonePending(pending), nil
}

func (s *MemoryStorage) Set(ctx context.Context, userID int64, pending *Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[userID] = clonePending(pending)
	return nil
}

func (s *MemoryStorage) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, userID)
	return nil
}

func (s *MemoryStorage) All(ctx context.Context) ([]*Pending, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Pending, 0, len(s.pending))
	for _, pending := range s.pending {
		out = append(out, clonePending(pending))
	}

	return out, nil
}

func clonePending(pending *Pending) *Pending {
	if pending == nil {
		return nil
	}

	copied := *pending
	return &copied
}
