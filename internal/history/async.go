package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fitgram/exercise-bot/internal/apperrors"
	"github.com/fitgram/exercise-bot/internal/jobs"
)

// AsyncStore enqueues appends onto the jobs queue instead of writing inline.
// Reads go straight to the underlying store, so just-enqueued entries are not
// visible until the worker drains them.
type AsyncStore struct {
	manager jobs.Manager
	inner   Store
	log     *slog.Logger
}

func NewAsyncStore(manager jobs.Manager, inner Store, log *slog.Logger) *AsyncStore {
	return &AsyncStore{manager: manager, inner: inner, log: log}
}

func (s *AsyncStore) Append(ctx context.Context, entry Entry) error {
	task, err := jobs.NewHistoryAppendTask(jobs.HistoryAppendPayload{
		Timestamp:   entry.Timestamp,
		UserID:      entry.UserID,
		Username:    entry.Username,
		Description: entry.Description,
	})
	if err != nil {
		return apperrors.NewHistoryError(fmt.Errorf("build history task: %w", err))
	}

	if _, err := s.manager.Enqueue(ctx, task); err != nil {
		return apperrors.NewHistoryError(fmt.Errorf("enqueue history task: %w", err))
	}

	return nil
}

func (s *AsyncStore) ListByUser(ctx context.Context, userID int64) ([]Entry, error) {
	return s.inner.ListByUser(ctx, userID)
}

func (s *AsyncStore) Close() error {
	if err := s.manager.Close(); err != nil {
		return err
	}

	return s.inner.Close()
}
