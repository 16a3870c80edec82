package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/socialsync-api/internal/models"
)

func (j *Queue) HandleAnalyticsRefreshTask(ctx context.Context, task *asynq.Task) error {
	var payload AnalyticsRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	_, err := j.as.RefreshAccount(ctx, payload.AccountID)
	switch {
	case err == nil:
		return nil

	case errors.Is(err, models.ErrProviderTimeout):
		slog.Warn("analytics refresh timed out", "account_id", payload.AccountID, "error", err)
		return err

	// The account was disconnected or its token can no longer be used.
	// Retrying will not change that.
	case errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrTokenRefreshFailed),
		errors.Is(err, models.ErrAccountNotConnected):
		slog.Info("skipping analytics refresh", "account_id", payload.AccountID, "error", err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)

	default:
		slog.Warn("analytics refresh failed", "account_id", payload.AccountID, "error", err)
		return err
	}
}
