package job

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/queue"
	"github.com/maheshrc27/socialsync-api/internal/repository"
	"github.com/maheshrc27/socialsync-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	service.TokenService
	window time.Duration
	calls  int
}

func (f *fakeTokens) RefreshExpiring(ctx context.Context, window time.Duration) (int, error) {
	f.calls++
	f.window = window
	return 2, nil
}

type connectedAccounts struct {
	repository.SocialAccountRepository
	accounts []*models.SocialAccount
	err      error
}

func (c *connectedAccounts) ListConnected(ctx context.Context) ([]*models.SocialAccount, error) {
	return c.accounts, c.err
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	fail  map[int64]bool
}

func (r *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	var payload queue.AnalyticsRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return nil, err
	}
	if r.fail[payload.AccountID] {
		return nil, asynq.ErrDuplicateTask
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: task.Type()}, nil
}

func TestTokenRefreshJobUsesThirtyMinuteWindow(t *testing.T) {
	tokens := &fakeTokens{}
	NewTokenRefreshJob(tokens, time.Minute).RefreshTokens()

	assert.Equal(t, 1, tokens.calls)
	assert.Equal(t, 30*time.Minute, tokens.window)
}

func TestAnalyticsRefreshJobEnqueuesConnectedAccounts(t *testing.T) {
	repo := &connectedAccounts{accounts: []*models.SocialAccount{{ID: 1}, {ID: 2}, {ID: 3}}}
	enq := &recordingEnqueuer{fail: map[int64]bool{2: true}}

	NewAnalyticsRefreshJob(repo, enq, time.Hour).EnqueueRefreshes()

	require.Len(t, enq.tasks, 2)
	for _, task := range enq.tasks {
		assert.Equal(t, queue.TaskTypeAnalyticsRefresh, task.Type())
	}

	var first queue.AnalyticsRefreshPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &first))
	assert.Equal(t, int64(1), first.AccountID)
}

func TestAnalyticsRefreshJobListFailure(t *testing.T) {
	repo := &connectedAccounts{err: errors.New("db down")}
	enq := &recordingEnqueuer{}

	NewAnalyticsRefreshJob(repo, enq, time.Hour).EnqueueRefreshes()

	assert.Empty(t, enq.tasks)
}
