package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/maheshrc27/socialsync-api/internal/analytics"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateIssuesStateAndRedirect(t *testing.T) {
	h := newHarness(t)

	req, err := h.connections.Initiate(context.Background(), 1, "twitter")
	require.NoError(t, err)
	assert.Len(t, req.State, 32)

	u, err := url.Parse(req.AuthorizationURL)
	require.NoError(t, err)
	assert.Equal(t, req.State, u.Query().Get("state"))
	assert.Equal(t, "http://app.test/auth/callback/twitter", u.Query().Get("redirect_uri"))
}

func TestInitiateRejectsUnknownAndUnconfiguredPlatforms(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.connections.Initiate(ctx, 1, "myspace")
	assert.ErrorIs(t, err, models.ErrPlatformNotFound)

	_, err = h.connections.Initiate(ctx, 1, "youtube")
	assert.ErrorIs(t, err, models.ErrPlatformNotFound)

	_, err = h.connections.Initiate(ctx, 1, "tiktok")
	assert.ErrorIs(t, err, models.ErrPlatformMisconfigured)
}

func TestCompleteRejectsStateMismatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.connections.Initiate(ctx, 1, "twitter")
	require.NoError(t, err)

	_, _, err = h.connections.Complete(ctx, 1, "twitter", "code", "not-the-issued-state")
	assert.ErrorIs(t, err, models.ErrInvalidOAuthState)

	accounts, err := h.connections.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.Equal(t, 0, h.connector.exchanges)
}

func TestCompleteRejectsStateIssuedToAnotherUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req, err := h.connections.Initiate(ctx, 1, "twitter")
	require.NoError(t, err)

	_, _, err = h.connections.Complete(ctx, 2, "twitter", "code", req.State)
	assert.ErrorIs(t, err, models.ErrInvalidOAuthState)
}

func TestCompleteStateIsSingleUse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req, err := h.connections.Initiate(ctx, 1, "twitter")
	require.NoError(t, err)

	_, _, err = h.connections.Complete(ctx, 1, "twitter", "code", req.State)
	require.NoError(t, err)

	_, _, err = h.connections.Complete(ctx, 1, "twitter", "code", req.State)
	assert.ErrorIs(t, err, models.ErrInvalidOAuthState)
}

func TestCompleteRequiresCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req, err := h.connections.Initiate(ctx, 1, "twitter")
	require.NoError(t, err)

	_, _, err = h.connections.Complete(ctx, 1, "twitter", "", req.State)
	assert.ErrorIs(t, err, models.ErrMissingCode)
}

func TestCompleteStoresEncryptedTokensAndFetchesAnalytics(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req, err := h.connections.Initiate(ctx, 1, "twitter")
	require.NoError(t, err)

	sa, created, err := h.connections.Complete(ctx, 1, "twitter", "abc", req.State)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2244994945", sa.AccountID)
	assert.Equal(t, models.AccountStatusConnected, sa.AccountStatus)
	assert.NotEqual(t, "access-abc", sa.AccessToken)
	assert.Equal(t, "access-abc", h.storedToken(t, sa.ID))
	assert.JSONEq(t, `{"scope":"tweet.read"}`, string(sa.Permissions))

	u, err := h.analytics.Get(ctx, 1, sa.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), *u.FollowerCount)
	assert.Len(t, h.fetcher.calls(), 1, "snapshot comes from the fetch done at connect time")
}

func TestReconnectUpdatesExistingAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req, err := h.connections.Initiate(ctx, 1, "twitter")
	require.NoError(t, err)
	first, created, err := h.connections.Complete(ctx, 1, "twitter", "one", req.State)
	require.NoError(t, err)
	require.True(t, created)

	req, err = h.connections.Initiate(ctx, 1, "twitter")
	require.NoError(t, err)
	second, created, err := h.connections.Complete(ctx, 1, "twitter", "two", req.State)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "access-two", h.storedToken(t, first.ID))

	accounts, err := h.connections.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestCompleteSurvivesFailedInitialFetch(t *testing.T) {
	h := newHarness(t)
	h.fetcher.fetch = func(string) (*analytics.RawMetrics, error) { return nil, errProviderDown }
	ctx := context.Background()

	req, err := h.connections.Initiate(ctx, 1, "twitter")
	require.NoError(t, err)

	sa, created, err := h.connections.Complete(ctx, 1, "twitter", "abc", req.State)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, sa.ID)
}

func TestDisconnectThenAnalyticsIsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sa := h.seedAccount(t, 1, "live", nil)

	require.NoError(t, h.connections.Disconnect(ctx, 1, sa.ID))
	assert.Equal(t, []string{"live"}, h.connector.revoked)

	_, err := h.analytics.Get(ctx, 1, sa.ID)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestDisconnectRequiresOwnership(t *testing.T) {
	h := newHarness(t)
	sa := h.seedAccount(t, 1, "live", nil)

	err := h.connections.Disconnect(context.Background(), 2, sa.ID)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	_, err = h.accounts.GetByID(context.Background(), sa.ID)
	assert.NoError(t, err)
}
