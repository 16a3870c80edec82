package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialsync-api/internal/metrics"
	"github.com/maheshrc27/socialsync-api/internal/service"
)

const tokenRefreshWindow = 30 * time.Minute

type TokenRefreshJob struct {
	ts      service.TokenService
	timeout time.Duration
}

func NewTokenRefreshJob(ts service.TokenService, timeout time.Duration) *TokenRefreshJob {
	return &TokenRefreshJob{
		ts:      ts,
		timeout: timeout,
	}
}

// RefreshTokens refreshes every connected account whose token lapses within
// the next 30 minutes. It runs from cron, so failures are only logged.
func (j *TokenRefreshJob) RefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	refreshed, err := j.ts.RefreshExpiring(ctx, tokenRefreshWindow)
	metrics.JobRunsTotal.WithLabelValues("token_refresh", metrics.Result(err)).Inc()
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if refreshed > 0 {
		slog.Info("refreshed expiring tokens", "count", refreshed)
	}
}
