package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"
	config "github.com/maheshrc27/socialsync-api/configs"
	"github.com/maheshrc27/socialsync-api/internal/metrics"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/oauth"
	"github.com/maheshrc27/socialsync-api/internal/repository"
	"github.com/maheshrc27/socialsync-api/pkg/utils"
	"golang.org/x/oauth2"
)

type AuthorizationRequest struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

type ConnectionService interface {
	Initiate(ctx context.Context, userID int64, platform string) (*AuthorizationRequest, error)
	Complete(ctx context.Context, userID int64, platform, code, state string) (account *models.SocialAccount, created bool, err error)
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Disconnect(ctx context.Context, userID, accountID int64) error
}

type connectionService struct {
	cfg       *config.Config
	registry  PlatformRegistry
	conns     ConnectorSource
	fetchers  FetcherSource
	states    repository.OAuthStateRepository
	sa        repository.SocialAccountRepository
	analytics AnalyticsService
	cipher    utils.TokenCipher
	clock     clockwork.Clock
}

func NewConnectionService(
	cfg *config.Config,
	registry PlatformRegistry,
	conns ConnectorSource,
	fetchers FetcherSource,
	states repository.OAuthStateRepository,
	sa repository.SocialAccountRepository,
	analytics AnalyticsService,
	cipher utils.TokenCipher,
	clock clockwork.Clock) ConnectionService {
	return &connectionService{
		cfg:       cfg,
		registry:  registry,
		conns:     conns,
		fetchers:  fetchers,
		states:    states,
		sa:        sa,
		analytics: analytics,
		cipher:    cipher,
		clock:     clock,
	}
}

// RedirectURI is where the provider sends the user back. The frontend relays
// code and state to the callback endpoint.
func RedirectURI(frontendURL string, platform models.Platform) string {
	return strings.TrimRight(frontendURL, "/") + "/auth/callback/" + string(platform)
}

func (s *connectionService) Initiate(ctx context.Context, userID int64, platform string) (*AuthorizationRequest, error) {
	d, err := s.registry.Get(ctx, platform)
	if err != nil {
		return nil, err
	}
	if !d.Configured() {
		slog.Warn("connect attempted for unconfigured platform", "platform", d.ID)
		return nil, fmt.Errorf("%w: %s", models.ErrPlatformMisconfigured, d.ID)
	}

	conn, err := s.conns.For(d.ID)
	if err != nil {
		return nil, err
	}

	state, err := utils.GenerateState()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	tx := &models.OAuthTransaction{
		State:        state,
		CodeVerifier: oauth2.GenerateVerifier(),
		RedirectURI:  RedirectURI(s.cfg.FrontendURL, d.ID),
		CreatedAt:    s.clock.Now().UTC(),
	}

	authURL, err := conn.AuthorizationURL(d, tx.RedirectURI, tx.State, tx.CodeVerifier)
	if err != nil {
		return nil, err
	}

	if err := s.states.Save(ctx, userID, d.ID, tx, s.cfg.OAuthStateTTL); err != nil {
		return nil, err
	}

	metrics.OAuthConnectsTotal.WithLabelValues(string(d.ID)).Inc()
	return &AuthorizationRequest{AuthorizationURL: authURL, State: state}, nil
}

func (s *connectionService) Complete(ctx context.Context, userID int64, platform, code, state string) (*models.SocialAccount, bool, error) {
	d, err := s.registry.Get(ctx, platform)
	if err != nil {
		return nil, false, err
	}

	sa, created, err := s.complete(ctx, userID, d, code, state)
	metrics.OAuthCallbacksTotal.WithLabelValues(string(d.ID), metrics.Result(err)).Inc()
	if err != nil {
		return nil, false, err
	}

	// The account is usable even if the first fetch fails; the sweep retries.
	if _, err := s.analytics.RefreshAccount(ctx, sa.ID); err != nil {
		slog.Warn("initial analytics fetch failed", "account_id", sa.ID, "platform", sa.Platform, "error", err)
	}

	return sa, created, nil
}

func (s *connectionService) complete(ctx context.Context, userID int64, d *models.PlatformDescriptor, code, state string) (*models.SocialAccount, bool, error) {
	if code == "" {
		return nil, false, models.ErrMissingCode
	}

	tx, err := s.states.Consume(ctx, userID, d.ID)
	if err != nil {
		return nil, false, err
	}
	if tx == nil || state == "" || subtle.ConstantTimeCompare([]byte(tx.State), []byte(state)) != 1 {
		slog.Warn("oauth state mismatch", "user_id", userID, "platform", d.ID)
		return nil, false, models.ErrInvalidOAuthState
	}

	conn, err := s.conns.For(d.ID)
	if err != nil {
		return nil, false, err
	}

	tok, err := conn.ExchangeCode(ctx, d, tx.RedirectURI, code, tx.CodeVerifier)
	if err != nil {
		return nil, false, err
	}

	fetcher, err := s.fetchers.For(d.ID)
	if err != nil {
		return nil, false, err
	}

	profile, err := fetcher.FetchProfile(ctx, tok.AccessToken)
	if err != nil {
		slog.Warn("unable to read provider profile", "platform", d.ID, "error", err)
		return nil, false, fmt.Errorf("read %s profile: %w", d.ID, err)
	}

	sa := &models.SocialAccount{
		UserID:          userID,
		Platform:        d.ID,
		AccountID:       profile.ID,
		AccountName:     profile.Name,
		AccountUsername: profile.Username,
		ProfilePicture:  profile.ProfilePicture,
		TokenExpiresAt:  expiresAt(tok.Expiry),
	}

	if sa.AccessToken, err = s.cipher.Encrypt(tok.AccessToken); err != nil {
		return nil, false, err
	}
	if sa.RefreshToken, err = s.cipher.Encrypt(tok.RefreshToken); err != nil {
		return nil, false, err
	}

	permissions := map[string]any{}
	for k, v := range profile.Permissions {
		permissions[k] = v
	}
	if tok.Scope != "" {
		permissions["scope"] = tok.Scope
	}
	if sa.Permissions, err = json.Marshal(permissions); err != nil {
		return nil, false, err
	}

	created, err := s.sa.Upsert(ctx, sa)
	if err != nil {
		return nil, false, err
	}

	slog.Info("social account connected", "account_id", sa.ID, "platform", sa.Platform, "created", created)
	return sa, created, nil
}

func (s *connectionService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	return s.sa.ListByUserID(ctx, userID)
}

// Disconnect removes the account after a best-effort revoke at the provider.
func (s *connectionService) Disconnect(ctx context.Context, userID, accountID int64) error {
	sa, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if sa.UserID != userID {
		return models.ErrAccountNotFound
	}

	s.revoke(ctx, sa)

	if err := s.sa.Remove(ctx, accountID, userID); err != nil {
		return err
	}

	slog.Info("social account disconnected", "account_id", accountID, "platform", sa.Platform)
	return nil
}

func (s *connectionService) revoke(ctx context.Context, sa *models.SocialAccount) {
	conn, err := s.conns.For(sa.Platform)
	if err != nil {
		return
	}
	revoker, ok := conn.(oauth.Revoker)
	if !ok {
		return
	}

	d, err := s.registry.Get(ctx, string(sa.Platform))
	if err != nil {
		return
	}

	token, err := s.cipher.Decrypt(sa.AccessToken)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if err := revoker.Revoke(ctx, d, token); err != nil {
		slog.Warn("provider revoke failed", "account_id", sa.ID, "platform", sa.Platform, "error", err)
	}
}
