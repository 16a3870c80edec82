package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the producers need.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewAnalyticsRefreshTask builds the task for one account. While a task for
// the account is pending another one with the same payload is rejected.
func NewAnalyticsRefreshTask(payload AnalyticsRefreshPayload, uniqueFor time.Duration) (*asynq.Task, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeAnalyticsRefresh, taskPayload,
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Unique(uniqueFor),
	), nil
}

func EnqueueAnalyticsRefresh(ctx context.Context, client Enqueuer, payload AnalyticsRefreshPayload, uniqueFor time.Duration) error {
	task, err := NewAnalyticsRefreshTask(payload, uniqueFor)
	if err != nil {
		return err
	}

	_, err = client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	slog.Debug("task enqueued", "type", TaskTypeAnalyticsRefresh, "account_id", payload.AccountID)
	return nil
}
