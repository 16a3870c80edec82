package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/maheshrc27/socialsync-api/internal/analytics"
	"github.com/maheshrc27/socialsync-api/internal/metrics"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/repository"
	"github.com/sony/gobreaker"
)

const (
	defaultContentLimit = 10
	maxContentLimit     = 50
)

type AnalyticsService interface {
	// Get returns the latest snapshot, fetching one if the account has none.
	Get(ctx context.Context, userID, accountID int64) (*models.UnifiedAnalytics, error)
	List(ctx context.Context, userID int64) ([]*models.UnifiedAnalytics, error)
	// Refresh fetches fresh analytics for an account owned by userID.
	Refresh(ctx context.Context, userID, accountID int64) (*models.UnifiedAnalytics, error)
	// RefreshAccount is the ownership-free entry point used by background work.
	RefreshAccount(ctx context.Context, accountID int64) (*models.UnifiedAnalytics, error)
	RecentContent(ctx context.Context, userID, accountID int64, limit int) ([]models.ContentItem, error)
}

type analyticsService struct {
	sa        repository.SocialAccountRepository
	snapshots repository.AnalyticsRepository
	fetchers  FetcherSource
	tokens    TokenService
	archive   RawArchive
	clock     clockwork.Clock
	breakers  map[models.Platform]*gobreaker.CircuitBreaker
}

// NewAnalyticsService wires the orchestrator. archive may be nil.
func NewAnalyticsService(
	sa repository.SocialAccountRepository,
	snapshots repository.AnalyticsRepository,
	fetchers FetcherSource,
	tokens TokenService,
	archive RawArchive,
	clock clockwork.Clock) AnalyticsService {
	breakers := make(map[models.Platform]*gobreaker.CircuitBreaker, len(models.Platforms))
	for _, p := range models.Platforms {
		breakers[p] = newProviderBreaker(p)
	}

	return &analyticsService{
		sa:        sa,
		snapshots: snapshots,
		fetchers:  fetchers,
		tokens:    tokens,
		archive:   archive,
		clock:     clock,
		breakers:  breakers,
	}
}

// newProviderBreaker opens after 5 consecutive provider failures and probes
// again after 30s. A rejected token is the account's problem, not the
// provider's, so it counts as success.
func newProviderBreaker(platform models.Platform) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(platform),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, models.ErrProviderUnauthorized)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerStateChanges.WithLabelValues(name, to.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func (s *analyticsService) owned(ctx context.Context, userID, accountID int64) (*models.SocialAccount, error) {
	sa, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if sa.UserID != userID {
		return nil, models.ErrAccountNotFound
	}
	return sa, nil
}

func (s *analyticsService) Get(ctx context.Context, userID, accountID int64) (*models.UnifiedAnalytics, error) {
	sa, err := s.owned(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshots.GetByAccountID(ctx, sa.ID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return s.refresh(ctx, sa)
	}
	return decodeSnapshot(snapshot)
}

func (s *analyticsService) List(ctx context.Context, userID int64) ([]*models.UnifiedAnalytics, error) {
	snapshots, err := s.snapshots.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.UnifiedAnalytics, 0, len(snapshots))
	for _, snapshot := range snapshots {
		u, err := decodeSnapshot(snapshot)
		if err != nil {
			slog.Warn("skipping unreadable snapshot", "account_id", snapshot.AccountID, "error", err)
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *analyticsService) Refresh(ctx context.Context, userID, accountID int64) (*models.UnifiedAnalytics, error) {
	sa, err := s.owned(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, sa)
}

func (s *analyticsService) RefreshAccount(ctx context.Context, accountID int64) (*models.UnifiedAnalytics, error) {
	sa, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, sa)
}

func (s *analyticsService) refresh(ctx context.Context, sa *models.SocialAccount) (*models.UnifiedAnalytics, error) {
	fetcher, err := s.fetchers.For(sa.Platform)
	if err != nil {
		return nil, err
	}

	start := s.clock.Now()
	var raw *analytics.RawMetrics
	sa, err = s.withToken(ctx, sa, func(ctx context.Context, token string) error {
		var ferr error
		raw, ferr = fetcher.FetchAnalytics(ctx, token, sa)
		return ferr
	})
	metrics.AnalyticsFetchDuration.WithLabelValues(string(sa.Platform)).Observe(s.clock.Since(start).Seconds())
	metrics.AnalyticsFetchTotal.WithLabelValues(string(sa.Platform), metrics.Result(err)).Inc()
	if err != nil {
		slog.Warn("analytics fetch failed", "account_id", sa.ID, "platform", sa.Platform, "error", err)
		return nil, fmt.Errorf("%w: %w", models.ErrAnalyticsUnavailable, err)
	}
	if len(raw.Warnings) > 0 {
		metrics.AnalyticsPartialFetches.WithLabelValues(string(sa.Platform)).Inc()
	}

	u, err := analytics.Normalize(sa.Platform, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrAnalyticsUnavailable, err)
	}
	u.AccountID = sa.ID
	u.LastUpdated = s.clock.Now().UTC()

	if err := s.store(ctx, sa, u, raw); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *analyticsService) store(ctx context.Context, sa *models.SocialAccount, u *models.UnifiedAnalytics, raw *analytics.RawMetrics) error {
	unifiedJSON, err := json.Marshal(u)
	if err != nil {
		return err
	}
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	err = s.snapshots.Upsert(ctx, &models.AnalyticsSnapshot{
		AccountID:   sa.ID,
		Platform:    sa.Platform,
		Unified:     unifiedJSON,
		Raw:         rawJSON,
		LastUpdated: u.LastUpdated,
	})
	if err != nil {
		return err
	}

	if s.archive != nil {
		if err := s.archive.Put(ctx, archiveKey(sa.Platform, sa.ID, u.LastUpdated), rawJSON); err != nil {
			slog.Warn("raw analytics archive failed", "account_id", sa.ID, "error", err)
		}
	}
	return nil
}

func (s *analyticsService) RecentContent(ctx context.Context, userID, accountID int64, limit int) ([]models.ContentItem, error) {
	sa, err := s.owned(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultContentLimit
	}
	if limit > maxContentLimit {
		limit = maxContentLimit
	}

	fetcher, err := s.fetchers.For(sa.Platform)
	if err != nil {
		return nil, err
	}

	var items []models.ContentItem
	_, err = s.withToken(ctx, sa, func(ctx context.Context, token string) error {
		var ferr error
		items, ferr = fetcher.FetchRecentContent(ctx, token, sa, limit)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrAnalyticsUnavailable, err)
	}
	return items, nil
}

// withToken runs call with a usable access token. A provider 401 triggers
// exactly one refresh and one retry. The returned account carries the token
// that was last used.
func (s *analyticsService) withToken(ctx context.Context, sa *models.SocialAccount, call func(ctx context.Context, token string) error) (*models.SocialAccount, error) {
	if sa.StoredStatus != "" && sa.StoredStatus != models.AccountStatusConnected {
		return sa, fmt.Errorf("%w: account is %s", models.ErrAccountNotConnected, sa.StoredStatus)
	}

	usable, err := s.tokens.Usable(ctx, sa)
	if err != nil {
		return sa, err
	}

	err = s.attempt(ctx, usable, call)
	if !errors.Is(err, models.ErrProviderUnauthorized) {
		return usable, err
	}

	slog.Info("provider rejected token, refreshing", "account_id", usable.ID, "platform", usable.Platform)
	refreshed, err := s.tokens.Refresh(ctx, usable)
	if err != nil {
		return usable, err
	}
	err = s.attempt(ctx, refreshed, call)
	if errors.Is(err, models.ErrProviderUnauthorized) {
		// A fresh token was rejected too; stop background refreshes until reconnect.
		slog.Warn("provider rejected refreshed token", "account_id", refreshed.ID, "platform", refreshed.Platform)
		if merr := s.sa.MarkStatus(ctx, refreshed.ID, models.AccountStatusExpired); merr != nil {
			slog.Error("unable to mark account expired", "account_id", refreshed.ID, "error", merr)
		}
		return refreshed, fmt.Errorf("%w: %w", models.ErrAccountNotConnected, err)
	}
	return refreshed, err
}

func (s *analyticsService) attempt(ctx context.Context, sa *models.SocialAccount, call func(ctx context.Context, token string) error) error {
	token, err := s.tokens.AccessToken(sa)
	if err != nil {
		return err
	}

	cb, ok := s.breakers[sa.Platform]
	if !ok {
		return call(ctx, token)
	}
	_, err = cb.Execute(func() (interface{}, error) {
		return nil, call(ctx, token)
	})
	return err
}

func decodeSnapshot(snapshot *models.AnalyticsSnapshot) (*models.UnifiedAnalytics, error) {
	var u models.UnifiedAnalytics
	if err := json.Unmarshal(snapshot.Unified, &u); err != nil {
		return nil, err
	}
	u.AccountID = snapshot.AccountID
	u.Platform = snapshot.Platform
	u.LastUpdated = snapshot.LastUpdated
	return &u, nil
}
