package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/socialsync-api/internal/analytics"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unauthorizedUnless answers 401 for every token but the accepted one.
func unauthorizedUnless(accepted string) func(string) (*analytics.RawMetrics, error) {
	return func(token string) (*analytics.RawMetrics, error) {
		if token != accepted {
			return nil, models.ErrProviderUnauthorized
		}
		return twitterMetrics(750), nil
	}
}

func TestRefreshRetriesOnceAfterUnauthorized(t *testing.T) {
	h := newHarness(t)
	h.fetcher.fetch = unauthorizedUnless("new")
	sa := h.seedAccount(t, 1, "old", nil)

	u, err := h.analytics.Refresh(context.Background(), 1, sa.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(750), *u.FollowerCount)
	assert.Equal(t, testNow, u.LastUpdated)

	assert.Equal(t, 1, h.connector.refreshes())
	assert.Equal(t, []string{"old", "new"}, h.fetcher.calls())
	assert.Equal(t, "new", h.storedToken(t, sa.ID))

	stored, err := h.accounts.GetByID(context.Background(), sa.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusConnected, stored.AccountStatus)
	require.NotNil(t, stored.TokenExpiresAt)
	assert.Equal(t, testNow.Add(2*time.Hour), *stored.TokenExpiresAt)

	assert.Len(t, h.archive.keys, 1)
}

func TestRefreshDoesNotLoopOnRepeatedUnauthorized(t *testing.T) {
	h := newHarness(t)
	h.fetcher.fetch = unauthorizedUnless("never")
	sa := h.seedAccount(t, 1, "old", nil)

	ctx := context.Background()

	_, err := h.analytics.Refresh(ctx, 1, sa.ID)
	assert.ErrorIs(t, err, models.ErrAnalyticsUnavailable)
	assert.ErrorIs(t, err, models.ErrAccountNotConnected)
	assert.Equal(t, 1, h.connector.refreshes())
	assert.Len(t, h.fetcher.calls(), 2)

	stored, err := h.accounts.GetByID(ctx, sa.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusExpired, stored.AccountStatus)
	assert.False(t, stored.AutoRefreshable())

	_, err = h.analytics.RefreshAccount(ctx, sa.ID)
	assert.ErrorIs(t, err, models.ErrAccountNotConnected)
	assert.Equal(t, 1, h.connector.refreshes())
	assert.Len(t, h.fetcher.calls(), 2)
}

func TestRefreshTimeoutStaysRetryable(t *testing.T) {
	h := newHarness(t)
	h.fetcher.fetch = unauthorizedUnless("new")
	h.connector.refresh = func(string) (*oauth.Token, error) {
		return nil, fmt.Errorf("%w: %w", models.ErrTokenRefreshFailed, models.ErrProviderTimeout)
	}
	sa := h.seedAccount(t, 1, "old", nil)
	ctx := context.Background()

	_, err := h.analytics.Refresh(ctx, 1, sa.ID)
	assert.ErrorIs(t, err, models.ErrAnalyticsUnavailable)
	assert.ErrorIs(t, err, models.ErrProviderTimeout)

	stored, err := h.accounts.GetByID(ctx, sa.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusConnected, stored.AccountStatus)
	assert.True(t, stored.AutoRefreshable())
}

func TestRefreshFailureMarksAccountExpired(t *testing.T) {
	h := newHarness(t)
	h.fetcher.fetch = unauthorizedUnless("never")
	h.connector.refresh = func(string) (*oauth.Token, error) {
		return nil, fmt.Errorf("%w: invalid_grant", models.ErrTokenRefreshFailed)
	}
	sa := h.seedAccount(t, 1, "old", nil)
	ctx := context.Background()

	_, err := h.analytics.Refresh(ctx, 1, sa.ID)
	assert.ErrorIs(t, err, models.ErrAnalyticsUnavailable)
	assert.ErrorIs(t, err, models.ErrTokenRefreshFailed)

	stored, err := h.accounts.GetByID(ctx, sa.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusExpired, stored.AccountStatus)
	assert.False(t, stored.AutoRefreshable())

	_, err = h.analytics.RefreshAccount(ctx, sa.ID)
	assert.ErrorIs(t, err, models.ErrAnalyticsUnavailable)
	assert.Equal(t, 1, h.connector.refreshes(), "expired accounts are not retried")
	assert.Len(t, h.fetcher.calls(), 1)
}

func TestLapsedTokenIsRefreshedBeforeFetch(t *testing.T) {
	h := newHarness(t)
	h.fetcher.fetch = unauthorizedUnless("new")
	expiry := testNow.Add(time.Minute)
	sa := h.seedAccount(t, 1, "old", &expiry)
	h.clock.Advance(2 * time.Minute)

	_, err := h.analytics.RefreshAccount(context.Background(), sa.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, h.fetcher.calls())
	assert.Equal(t, 1, h.connector.refreshes())
}

func TestProviderTimeoutLeavesAccountConnected(t *testing.T) {
	h := newHarness(t)
	h.fetcher.fetch = func(string) (*analytics.RawMetrics, error) {
		return nil, fmt.Errorf("%w: context deadline exceeded", models.ErrProviderTimeout)
	}
	sa := h.seedAccount(t, 1, "old", nil)

	_, err := h.analytics.Refresh(context.Background(), 1, sa.ID)
	assert.ErrorIs(t, err, models.ErrAnalyticsUnavailable)
	assert.ErrorIs(t, err, models.ErrProviderTimeout)
	assert.Equal(t, 0, h.connector.refreshes())

	stored, err := h.accounts.GetByID(context.Background(), sa.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusConnected, stored.AccountStatus)
}

func TestCircuitOpensAfterRepeatedProviderFailures(t *testing.T) {
	h := newHarness(t)
	h.fetcher.fetch = func(string) (*analytics.RawMetrics, error) { return nil, errProviderDown }
	sa := h.seedAccount(t, 1, "old", nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := h.analytics.RefreshAccount(ctx, sa.ID)
		assert.ErrorIs(t, err, errProviderDown)
	}

	_, err := h.analytics.RefreshAccount(ctx, sa.ID)
	assert.ErrorIs(t, err, models.ErrAnalyticsUnavailable)
	assert.False(t, errors.Is(err, errProviderDown))
	assert.Len(t, h.fetcher.calls(), 5)
}

func TestAnalyticsRequiresOwnership(t *testing.T) {
	h := newHarness(t)
	sa := h.seedAccount(t, 1, "old", nil)
	ctx := context.Background()

	_, err := h.analytics.Get(ctx, 2, sa.ID)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	_, err = h.analytics.Refresh(ctx, 2, sa.ID)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	_, err = h.analytics.RecentContent(ctx, 2, sa.ID, 5)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestListReturnsStoredSnapshots(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sa := h.seedAccount(t, 1, "old", nil)

	_, err := h.analytics.RefreshAccount(ctx, sa.ID)
	require.NoError(t, err)

	list, err := h.analytics.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sa.ID, list[0].AccountID)
	assert.Equal(t, models.PlatformTwitter, list[0].Platform)

	other, err := h.analytics.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRecentContentClampsLimit(t *testing.T) {
	h := newHarness(t)
	sa := h.seedAccount(t, 1, "old", nil)
	ctx := context.Background()

	items, err := h.analytics.RecentContent(ctx, 1, sa.ID, 0)
	require.NoError(t, err)
	assert.Len(t, items, defaultContentLimit)

	items, err = h.analytics.RecentContent(ctx, 1, sa.ID, 500)
	require.NoError(t, err)
	assert.Len(t, items, maxContentLimit)
}

func TestConcurrentRefreshesShareOneProviderCall(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.connector.refresh = func(string) (*oauth.Token, error) {
		<-release
		return &oauth.Token{AccessToken: "new", Expiry: testNow.Add(time.Hour)}, nil
	}
	sa := h.seedAccount(t, 1, "old", nil)
	held, err := h.accounts.GetByID(context.Background(), sa.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*models.SocialAccount, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.tokens.Refresh(context.Background(), held)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, h.connector.refreshes())
	for i := range results {
		require.NoError(t, errs[i])
		token, err := h.cipher.Decrypt(results[i].AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "new", token)
	}
}

func TestRefreshExpiringSkipsAccountsWithoutRefreshToken(t *testing.T) {
	h := newHarness(t)
	soon := testNow.Add(10 * time.Minute)
	with := h.seedAccount(t, 1, "old", &soon)

	access, err := h.cipher.Encrypt("li")
	require.NoError(t, err)
	_, err = h.accounts.Upsert(context.Background(), &models.SocialAccount{
		UserID: 1, Platform: models.PlatformLinkedin, AccountID: "abc", AccessToken: access, TokenExpiresAt: &soon,
	})
	require.NoError(t, err)

	refreshed, err := h.tokens.RefreshExpiring(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, 1, h.connector.refreshes())
	assert.Equal(t, "new", h.storedToken(t, with.ID))
}
