package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeHistoryAppend = "history:append"
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// HistoryAppendPayload mirrors a journal entry so the append can be replayed
// by the worker process.
type HistoryAppendPayload struct {
	Timestamp   time.Time `json:"timestamp"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
}

func NewHistoryAppendTask(payload HistoryAppendPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeHistoryAppend, raw, asynq.Queue(QueueLow), asynq.MaxRetry(5)), nil
}
