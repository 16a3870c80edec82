package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	config "github.com/maheshrc27/socialsync-api/configs"
	"github.com/maheshrc27/socialsync-api/internal/analytics"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/oauth"
	"github.com/maheshrc27/socialsync-api/internal/repository"
	"github.com/maheshrc27/socialsync-api/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

// fakeAccounts mimics the SQL repository, including lazy expiry and the
// conditional token update.
type fakeAccounts struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	rows   map[int64]*models.SocialAccount
	nextID int64
}

func newFakeAccounts(clock clockwork.Clock) *fakeAccounts {
	return &fakeAccounts{clock: clock, rows: map[int64]*models.SocialAccount{}}
}

func (f *fakeAccounts) read(row *models.SocialAccount) *models.SocialAccount {
	c := *row
	c.StoredStatus = ""
	c.ApplyExpiry(f.clock.Now())
	return &c
}

func (f *fakeAccounts) Upsert(ctx context.Context, sa *models.SocialAccount) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sa.AccountStatus = models.AccountStatusConnected
	if sa.TokenExpired(f.clock.Now()) {
		sa.AccountStatus = models.AccountStatusExpired
	}
	for id, row := range f.rows {
		if row.UserID == sa.UserID && row.Platform == sa.Platform && row.AccountID == sa.AccountID {
			sa.ID = id
			sa.CreatedAt = row.CreatedAt
			c := *sa
			f.rows[id] = &c
			return false, nil
		}
	}

	f.nextID++
	sa.ID = f.nextID
	sa.CreatedAt = f.clock.Now()
	c := *sa
	f.rows[sa.ID] = &c
	return true, nil
}

func (f *fakeAccounts) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return f.read(row), nil
}

func (f *fakeAccounts) GetByUserPlatform(ctx context.Context, userID int64, platform models.Platform) (*models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.UserID == userID && row.Platform == platform {
			return f.read(row), nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (f *fakeAccounts) list(keep func(*models.SocialAccount) bool) []*models.SocialAccount {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.SocialAccount
	for _, row := range f.rows {
		if keep(row) {
			out = append(out, f.read(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeAccounts) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	return f.list(func(sa *models.SocialAccount) bool { return sa.UserID == userID }), nil
}

func (f *fakeAccounts) ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	return f.list(func(sa *models.SocialAccount) bool {
		return sa.AccountStatus == models.AccountStatusConnected && sa.TokenExpiresAt != nil && sa.TokenExpiresAt.Before(before)
	}), nil
}

func (f *fakeAccounts) ListConnected(ctx context.Context) ([]*models.SocialAccount, error) {
	return f.list(func(sa *models.SocialAccount) bool { return sa.AccountStatus == models.AccountStatusConnected }), nil
}

func (f *fakeAccounts) SetToken(ctx context.Context, id int64, oldAccessToken string, sa *models.SocialAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok || row.AccessToken != oldAccessToken {
		return models.ErrStaleToken
	}
	row.AccessToken = sa.AccessToken
	if sa.RefreshToken != "" {
		row.RefreshToken = sa.RefreshToken
	}
	row.TokenExpiresAt = sa.TokenExpiresAt
	row.AccountStatus = models.AccountStatusConnected
	if row.TokenExpired(f.clock.Now()) {
		row.AccountStatus = models.AccountStatusExpired
	}
	return nil
}

func (f *fakeAccounts) MarkStatus(ctx context.Context, id int64, status models.AccountStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok {
		return models.ErrAccountNotFound
	}
	row.AccountStatus = status
	return nil
}

func (f *fakeAccounts) Remove(ctx context.Context, id, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok || row.UserID != userID {
		return models.ErrAccountNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeSnapshots struct {
	mu   sync.Mutex
	rows map[int64]*models.AnalyticsSnapshot
	acc  *fakeAccounts
}

func (f *fakeSnapshots) Upsert(ctx context.Context, s *models.AnalyticsSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *s
	f.rows[s.AccountID] = &c
	return nil
}

func (f *fakeSnapshots) GetByAccountID(ctx context.Context, accountID int64) (*models.AnalyticsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[accountID], nil
}

func (f *fakeSnapshots) ListByUserID(ctx context.Context, userID int64) ([]*models.AnalyticsSnapshot, error) {
	accounts, _ := f.acc.ListByUserID(ctx, userID)

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AnalyticsSnapshot
	for _, a := range accounts {
		if s, ok := f.rows[a.ID]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeRegistry struct {
	descriptors map[models.Platform]*models.PlatformDescriptor
}

func (f *fakeRegistry) Get(ctx context.Context, id string) (*models.PlatformDescriptor, error) {
	p, ok := models.ParsePlatform(id)
	if !ok {
		return nil, models.ErrPlatformNotFound
	}
	d, ok := f.descriptors[p]
	if !ok || !d.IsActive {
		return nil, models.ErrPlatformNotFound
	}
	return d, nil
}

func (f *fakeRegistry) ListActive(ctx context.Context) ([]*models.PlatformDescriptor, error) {
	var out []*models.PlatformDescriptor
	for _, p := range models.Platforms {
		if d, ok := f.descriptors[p]; ok && d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRegistry) Seed(ctx context.Context) error { return nil }

// fakeConnector hands out tokens from refresh and records every provider call.
type fakeConnector struct {
	mu           sync.Mutex
	exchange     func(code string) (*oauth.Token, error)
	refresh      func(refreshToken string) (*oauth.Token, error)
	exchanges    int
	refreshCalls int
	revoked      []string
}

func (f *fakeConnector) AuthorizationURL(d *models.PlatformDescriptor, redirectURI, state, verifier string) (string, error) {
	return d.AuthURL + "?state=" + state + "&redirect_uri=" + redirectURI, nil
}

func (f *fakeConnector) ExchangeCode(ctx context.Context, d *models.PlatformDescriptor, redirectURI, code, verifier string) (*oauth.Token, error) {
	f.mu.Lock()
	f.exchanges++
	f.mu.Unlock()
	return f.exchange(code)
}

func (f *fakeConnector) RefreshAccessToken(ctx context.Context, d *models.PlatformDescriptor, refreshToken string) (*oauth.Token, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.mu.Unlock()
	return f.refresh(refreshToken)
}

func (f *fakeConnector) Revoke(ctx context.Context, d *models.PlatformDescriptor, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, accessToken)
	return nil
}

func (f *fakeConnector) refreshes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

type fakeConnectors struct{ conn *fakeConnector }

func (f fakeConnectors) For(platform models.Platform) (oauth.Connector, error) {
	if _, ok := models.ParsePlatform(string(platform)); !ok {
		return nil, models.ErrPlatformNotFound
	}
	return f.conn, nil
}

// fakeFetcher answers analytics calls per access token.
type fakeFetcher struct {
	mu      sync.Mutex
	tokens  []string
	fetch   func(token string) (*analytics.RawMetrics, error)
	profile *models.PlatformProfile
}

func (f *fakeFetcher) FetchProfile(ctx context.Context, accessToken string) (*models.PlatformProfile, error) {
	return f.profile, nil
}

func (f *fakeFetcher) FetchAnalytics(ctx context.Context, accessToken string, account *models.SocialAccount) (*analytics.RawMetrics, error) {
	f.mu.Lock()
	f.tokens = append(f.tokens, accessToken)
	f.mu.Unlock()
	return f.fetch(accessToken)
}

func (f *fakeFetcher) FetchRecentContent(ctx context.Context, accessToken string, account *models.SocialAccount, limit int) ([]models.ContentItem, error) {
	if _, err := f.FetchAnalytics(ctx, accessToken, account); err != nil {
		return nil, err
	}
	items := make([]models.ContentItem, limit)
	for i := range items {
		items[i].ID = strings.Repeat("x", i+1)
	}
	return items, nil
}

func (f *fakeFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

type fakeFetchers struct{ fetcher *fakeFetcher }

func (f fakeFetchers) For(platform models.Platform) (analytics.Fetcher, error) {
	return f.fetcher, nil
}

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeArchive) Put(ctx context.Context, key string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return nil
}

func twitterMetrics(followers int64) *analytics.RawMetrics {
	return &analytics.RawMetrics{
		Platform: models.PlatformTwitter,
		Twitter:  &analytics.TwitterMetrics{Followers: followers, Tweets: 12},
	}
}

var errProviderDown = errors.New("provider down")

type harness struct {
	clock       *clockwork.FakeClock
	cipher      utils.TokenCipher
	accounts    *fakeAccounts
	snapshots   *fakeSnapshots
	registry    *fakeRegistry
	connector   *fakeConnector
	fetcher     *fakeFetcher
	archive     *fakeArchive
	tokens      TokenService
	analytics   AnalyticsService
	connections ConnectionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clock := clockwork.NewFakeClockAt(testNow)
	cipher, err := utils.NewTokenCipher(strings.Repeat("ab", 32))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	h := &harness{
		clock:    clock,
		cipher:   cipher,
		accounts: newFakeAccounts(clock),
		registry: &fakeRegistry{descriptors: map[models.Platform]*models.PlatformDescriptor{
			models.PlatformTwitter: {
				ID: models.PlatformTwitter, AuthURL: "https://twitter.test/authorize", TokenURL: "https://twitter.test/token",
				Scope: "tweet.read users.read offline.access", ClientID: "cid", ClientSecret: "secret", IsActive: true,
			},
			models.PlatformTiktok: {ID: models.PlatformTiktok, AuthURL: "https://tiktok.test/authorize", IsActive: true},
		}},
		connector: &fakeConnector{
			exchange: func(code string) (*oauth.Token, error) {
				return &oauth.Token{AccessToken: "access-" + code, RefreshToken: "refresh-" + code, Expiry: testNow.Add(time.Hour), Scope: "tweet.read"}, nil
			},
			refresh: func(string) (*oauth.Token, error) {
				return &oauth.Token{AccessToken: "new", RefreshToken: "refresh-2", Expiry: testNow.Add(2 * time.Hour)}, nil
			},
		},
		fetcher: &fakeFetcher{
			fetch:   func(string) (*analytics.RawMetrics, error) { return twitterMetrics(500), nil },
			profile: &models.PlatformProfile{ID: "2244994945", Username: "dev", Name: "Dev"},
		},
		archive: &fakeArchive{},
	}
	h.snapshots = &fakeSnapshots{rows: map[int64]*models.AnalyticsSnapshot{}, acc: h.accounts}

	cfg := &config.Config{FrontendURL: "http://app.test/", OAuthStateTTL: 10 * time.Minute}

	h.tokens = NewTokenService(h.accounts, h.registry, fakeConnectors{h.connector}, cipher, clock)
	h.analytics = NewAnalyticsService(h.accounts, h.snapshots, fakeFetchers{h.fetcher}, h.tokens, h.archive, clock)
	h.connections = NewConnectionService(cfg, h.registry, fakeConnectors{h.connector}, fakeFetchers{h.fetcher},
		repository.NewOAuthStateRepository(rdb), h.accounts, h.analytics, cipher, clock)
	return h
}

// seedAccount stores a connected Twitter account holding the given access token.
func (h *harness) seedAccount(t *testing.T, userID int64, accessToken string, expiresAt *time.Time) *models.SocialAccount {
	t.Helper()

	access, err := h.cipher.Encrypt(accessToken)
	require.NoError(t, err)
	refresh, err := h.cipher.Encrypt("refresh-1")
	require.NoError(t, err)

	sa := &models.SocialAccount{
		UserID:         userID,
		Platform:       models.PlatformTwitter,
		AccountID:      "2244994945",
		AccountName:    "Dev",
		AccessToken:    access,
		RefreshToken:   refresh,
		TokenExpiresAt: expiresAt,
	}
	_, err = h.accounts.Upsert(context.Background(), sa)
	require.NoError(t, err)
	return sa
}

func (h *harness) storedToken(t *testing.T, id int64) string {
	t.Helper()
	sa, err := h.accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	token, err := h.cipher.Decrypt(sa.AccessToken)
	require.NoError(t, err)
	return token
}
