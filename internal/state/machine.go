package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userLockKeyPattern = "user:lock:%d"
	lockTTL            = 5 * time.Second
)

var (
	// ErrInvalidTransition indicates that a requested transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrNotFound indicates that no continuation exists for the user.
	ErrNotFound = errors.New("pending continuation not found")
	// ErrLocked indicates that a concurrent operation already holds the lock.
	ErrLocked = errors.New("state is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Machine describes the operations supported by the continuation scheduler.
type Machine interface {
	// Pending returns the open continuation for the user, or ErrNotFound.
	Pending(ctx context.Context, userID int64) (*Pending, error)
	// Register stores a continuation, silently replacing any unconsumed prior
	// one (last registration wins).
	Register(ctx context.Context, userID int64, pending *Pending) error
	// TransitionTo validates the edge against the transition table before
	// storing; the retry self-edge awaiting_limit -> awaiting_limit is valid.
	TransitionTo(ctx context.Context, userID int64, pending *Pending) error
	// Clear consumes the continuation, returning the user to idle.
	Clear(ctx context.Context, userID int64) error
	// All returns every open continuation.
	All(ctx context.Context) ([]*Pending, error)
}

// machine is a concrete Machine backed by Storage and optional Redis locking.
type machine struct {
	storage     Storage
	log         *slog.Logger
	redisClient *redis.Client
}

// NewMachine creates a scheduler using the provided storage backend and redis
// client for per-user locking. A nil client skips locking (single process).
func NewMachine(storage Storage, log *slog.Logger, redisClient *redis.Client) Machine {
	if log == nil {
		log = slog.Default()
	}

	return &machine{
		storage:     storage,
		log:         log,
		redisClient: redisClient,
	}
}

func (m *machine) Pending(ctx context.Context, userID int64) (*Pending, error) {
	return m.storage.Get(ctx, userID)
}

func (m *machine) All(ctx context.Context) ([]*Pending, error) {
	return m.storage.All(ctx)
}

func (m *machine) Register(ctx context.Context, userID int64, pending *Pending) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	return m.save(ctx, userID, pending)
}

func (m *machine) TransitionTo(ctx context.Context, userID int64, pending *Pending) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	current := StateIdle

	stored, err := m.storage.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
	} else if stored != nil {
		current = stored.Current
	}

	if !IsTransitionAllowed(current, pending.Current) {
		m.log.Warn("invalid state transition", "user_id", userID, "from", current, "to", pending.Current)
		return ErrInvalidTransition
	}

	transitionRecorder(string(current), string(pending.Current))

	return m.save(ctx, userID, pending)
}

func (m *machine) Clear(ctx context.Context, userID int64) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	return m.storage.Clear(ctx, userID)
}

func (m *machine) save(ctx context.Context, userID int64, pending *Pending) error {
	stored := clonePending(pending)
	stored.UserID = userID
	stored.UpdatedAt = time.Now().UTC()

	return m.storage.Set(ctx, userID, stored)
}

func (m *machine) lock(ctx context.Context, userID int64) error {
	if m.redisClient == nil {
		return nil
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	acquired, err := m.redisClient.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		m.log.Error("failed to acquire user state lock", "user_id", userID, "error", err)
		return err
	}

	if !acquired {
		m.log.Warn("user state lock already held", "user_id", userID)
		return ErrLocked
	}

	return nil
}

func (m *machine) unlock(ctx context.Context, userID int64) {
	if m.redisClient == nil {
		return
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	if err := m.redisClient.Del(ctx, key).Err(); err != nil {
		m.log.Error("failed to release user state lock", "user_id", userID, "error", err)
	}
}
