// Package handlers contains the task processors executed by the jobs worker.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/fitgram/exercise-bot/internal/history"
	"github.com/fitgram/exercise-bot/internal/jobs"
)

// HistoryAppendHandler replays queued journal appends against the real store.
type HistoryAppendHandler struct {
	store history.Store
	log   *slog.Logger
}

func NewHistoryAppendHandler(store history.Store, log *slog.Logger) *HistoryAppendHandler {
	return &HistoryAppendHandler{store: store, log: log}
}

func (h *HistoryAppendHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.HistoryAppendPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "history append: failed to decode payload", slog.Any("task_type", t.Type()), slog.String("error", err.Error()))
		}
		return err
	}

	entry := history.Entry{
		Timestamp:   payload.Timestamp,
		UserID:      payload.UserID,
		Username:    payload.Username,
		Description: payload.Description,
	}

	if err := h.store.Append(ctx, entry); err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "history append: store write failed", slog.Int64("user_id", payload.UserID), slog.String("error", err.Error()))
		}
		return err
	}

	return nil
}
