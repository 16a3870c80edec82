package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialsync-api/internal/metrics"
	"github.com/maheshrc27/socialsync-api/internal/queue"
	"github.com/maheshrc27/socialsync-api/internal/repository"
)

type AnalyticsRefreshJob struct {
	sa       repository.SocialAccountRepository
	client   queue.Enqueuer
	interval time.Duration
}

func NewAnalyticsRefreshJob(sa repository.SocialAccountRepository, client queue.Enqueuer, interval time.Duration) *AnalyticsRefreshJob {
	return &AnalyticsRefreshJob{
		sa:       sa,
		client:   client,
		interval: interval,
	}
}

// EnqueueRefreshes schedules one analytics refresh task per connected
// account. The fetches themselves run on the asynq workers.
func (j *AnalyticsRefreshJob) EnqueueRefreshes() {
	ctx := context.Background()

	accounts, err := j.sa.ListConnected(ctx)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues("analytics_refresh", metrics.ResultFailure).Inc()
		slog.Info(err.Error())
		return
	}

	enqueued := 0
	for _, acc := range accounts {
		payload := queue.AnalyticsRefreshPayload{AccountID: acc.ID}
		if err := queue.EnqueueAnalyticsRefresh(ctx, j.client, payload, j.interval); err != nil {
			slog.Debug("analytics refresh not enqueued", "account_id", acc.ID, "error", err)
			continue
		}
		enqueued++
	}

	metrics.JobRunsTotal.WithLabelValues("analytics_refresh", metrics.ResultSuccess).Inc()
	slog.Info("analytics refresh scheduled", "accounts", len(accounts), "enqueued", enqueued)
}
