package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/maheshrc27/socialsync-api/internal/metrics"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/oauth"
	"github.com/maheshrc27/socialsync-api/internal/repository"
	"github.com/maheshrc27/socialsync-api/pkg/utils"
	"golang.org/x/sync/singleflight"
)

const refreshConcurrency = 10

type TokenService interface {
	// AccessToken decrypts the stored access token.
	AccessToken(sa *models.SocialAccount) (string, error)
	// Usable returns an account whose token can be sent to the provider,
	// refreshing first when the token has lapsed.
	Usable(ctx context.Context, sa *models.SocialAccount) (*models.SocialAccount, error)
	// Refresh exchanges the refresh token for a new access token. Concurrent
	// calls for one account share a single provider round trip.
	Refresh(ctx context.Context, sa *models.SocialAccount) (*models.SocialAccount, error)
	// RefreshExpiring refreshes every account whose token lapses within window.
	RefreshExpiring(ctx context.Context, window time.Duration) (refreshed int, err error)
}

type tokenService struct {
	sa       repository.SocialAccountRepository
	registry PlatformRegistry
	conns    ConnectorSource
	cipher   utils.TokenCipher
	clock    clockwork.Clock
	group    singleflight.Group
}

func NewTokenService(
	sa repository.SocialAccountRepository,
	registry PlatformRegistry,
	conns ConnectorSource,
	cipher utils.TokenCipher,
	clock clockwork.Clock) TokenService {
	return &tokenService{
		sa:       sa,
		registry: registry,
		conns:    conns,
		cipher:   cipher,
		clock:    clock,
	}
}

func (s *tokenService) AccessToken(sa *models.SocialAccount) (string, error) {
	token, err := s.cipher.Decrypt(sa.AccessToken)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return token, nil
}

func (s *tokenService) Usable(ctx context.Context, sa *models.SocialAccount) (*models.SocialAccount, error) {
	if sa.StoredStatus != "" && sa.StoredStatus != models.AccountStatusConnected {
		return nil, fmt.Errorf("%w: account %d is %s", models.ErrTokenRefreshFailed, sa.ID, sa.StoredStatus)
	}
	if !sa.TokenExpired(s.clock.Now()) {
		return sa, nil
	}
	return s.Refresh(ctx, sa)
}

func (s *tokenService) Refresh(ctx context.Context, sa *models.SocialAccount) (*models.SocialAccount, error) {
	key := strconv.FormatInt(sa.ID, 10)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.refresh(ctx, sa)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SocialAccount), nil
}

func (s *tokenService) refresh(ctx context.Context, seen *models.SocialAccount) (*models.SocialAccount, error) {
	current, err := s.sa.GetByID(ctx, seen.ID)
	if err != nil {
		return nil, err
	}

	// Someone else already rotated the token the caller was holding.
	if current.AccessToken != seen.AccessToken && !current.TokenExpired(s.clock.Now()) &&
		current.StoredStatus == models.AccountStatusConnected {
		return current, nil
	}

	if current.StoredStatus != models.AccountStatusConnected {
		return nil, fmt.Errorf("%w: account %d is %s", models.ErrTokenRefreshFailed, current.ID, current.StoredStatus)
	}
	if current.RefreshToken == "" {
		s.markExpired(ctx, current)
		metrics.TokenRefreshTotal.WithLabelValues(string(current.Platform), metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("%w: no refresh token stored for account %d", models.ErrTokenRefreshFailed, current.ID)
	}

	tok, err := s.exchangeRefresh(ctx, current)
	metrics.TokenRefreshTotal.WithLabelValues(string(current.Platform), metrics.Result(err)).Inc()
	if err != nil {
		// A timeout says nothing about the grant, so the account stays connected.
		if !errors.Is(err, models.ErrProviderTimeout) {
			s.markExpired(ctx, current)
		}
		return nil, err
	}

	updated := *current
	if updated.AccessToken, err = s.cipher.Encrypt(tok.AccessToken); err != nil {
		return nil, err
	}
	updated.RefreshToken = ""
	if tok.RefreshToken != "" {
		if updated.RefreshToken, err = s.cipher.Encrypt(tok.RefreshToken); err != nil {
			return nil, err
		}
	}
	updated.TokenExpiresAt = expiresAt(tok.Expiry)

	err = s.sa.SetToken(ctx, current.ID, current.AccessToken, &updated)
	if errors.Is(err, models.ErrStaleToken) {
		return s.sa.GetByID(ctx, current.ID)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("access token refreshed", "account_id", current.ID, "platform", current.Platform)
	return s.sa.GetByID(ctx, current.ID)
}

func (s *tokenService) exchangeRefresh(ctx context.Context, sa *models.SocialAccount) (*oauth.Token, error) {
	d, err := s.registry.Get(ctx, string(sa.Platform))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTokenRefreshFailed, err)
	}

	conn, err := s.conns.For(sa.Platform)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTokenRefreshFailed, err)
	}

	refreshToken, err := s.cipher.Decrypt(sa.RefreshToken)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %w", models.ErrTokenRefreshFailed, err)
	}

	tok, err := conn.RefreshAccessToken(ctx, d, refreshToken)
	if err != nil {
		slog.Warn("token refresh failed", "account_id", sa.ID, "platform", sa.Platform, "error", err)
		if !errors.Is(err, models.ErrTokenRefreshFailed) {
			err = fmt.Errorf("%w: %w", models.ErrTokenRefreshFailed, err)
		}
		return nil, err
	}
	return tok, nil
}

func (s *tokenService) markExpired(ctx context.Context, sa *models.SocialAccount) {
	if err := s.sa.MarkStatus(ctx, sa.ID, models.AccountStatusExpired); err != nil {
		slog.Error("unable to mark account expired", "account_id", sa.ID, "error", err)
	}
}

func (s *tokenService) RefreshExpiring(ctx context.Context, window time.Duration) (int, error) {
	accounts, err := s.sa.ListExpiring(ctx, s.clock.Now().Add(window))
	if err != nil {
		return 0, err
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		refreshed int
	)
	semaphore := make(chan struct{}, refreshConcurrency)

	for _, acc := range accounts {
		if !acc.AutoRefreshable() {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if _, err := s.Refresh(ctx, acc); err != nil {
				slog.Info("Unable to refresh token", "account_id", acc.ID, "platform", acc.Platform, "error", err)
				return
			}
			mu.Lock()
			refreshed++
			mu.Unlock()
		}(acc)
	}

	wg.Wait()
	return refreshed, nil
}
