// Package history records every incoming user request and serves the
// /history command. Appends go through a single Recorder so concurrent
// updates never interleave.
package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/fitgram/exercise-bot/internal/apperrors"
)

// Entry is one recorded user request.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
}

// Store defines the persistence contract for the request journal.
type Store interface {
	// Append adds one entry to the journal.
	Append(ctx context.Context, entry Entry) error
	// ListByUser returns the user's entries in chronological order.
	ListByUser(ctx context.Context, userID int64) ([]Entry, error)
	// Close releases the underlying resources.
	Close() error
}

// Recorder wraps a Store so that journal failures never abort the flow being
// recorded: errors are logged and swallowed.
type Recorder struct {
	store Store
	log   *slog.Logger
}

func NewRecorder(store Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}

	return &Recorder{store: store, log: log}
}

// Record journals the request, retrying transient store failures with
// backoff. An append that still fails is logged and dropped.
func (r *Recorder) Record(ctx context.Context, userID int64, username, description string) {
	entry := Entry{
		Timestamp:   time.Now().UTC(),
		UserID:      userID,
		Username:    username,
		Description: description,
	}

	err := apperrors.WithRetry(ctx, func() error {
		return r.store.Append(ctx, entry)
	})
	if err != nil {
		r.log.Error("failed to record history entry",
			"user_id", userID,
			"description", description,
			"error", err,
		)
	}
}

// ListByUser proxies to the underlying store.
func (r *Recorder) ListByUser(ctx context.Context, userID int64) ([]Entry, error) {
	return r.store.ListByUser(ctx, userID)
}
