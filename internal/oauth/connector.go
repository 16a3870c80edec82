package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"golang.org/x/oauth2"
)

const (
	googleRevokeURL    = "https://oauth2.googleapis.com/revoke"
	twitterRevokeURL   = "https://api.twitter.com/2/oauth2/revoke"
	tiktokRevokeURL    = "https://open.tiktokapis.com/v2/oauth/revoke/"
	instagramGraphURL  = "https://graph.instagram.com"
	maxErrorBodyLength = 4096
)

// Token is the result of a code exchange or refresh. Expiry is zero when the
// provider did not report a lifetime.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Scope        string
}

// Connector implements one platform's OAuth2 dialect.
type Connector interface {
	AuthorizationURL(d *models.PlatformDescriptor, redirectURI, state, verifier string) (string, error)
	ExchangeCode(ctx context.Context, d *models.PlatformDescriptor, redirectURI, code, verifier string) (*Token, error)
	RefreshAccessToken(ctx context.Context, d *models.PlatformDescriptor, refreshToken string) (*Token, error)
}

// Revoker is implemented by connectors whose provider exposes token revocation.
type Revoker interface {
	Revoke(ctx context.Context, d *models.PlatformDescriptor, accessToken string) error
}

type Endpoints struct {
	InstagramGraphURL string
	GoogleRevokeURL   string
	TwitterRevokeURL  string
	TiktokRevokeURL   string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		InstagramGraphURL: instagramGraphURL,
		GoogleRevokeURL:   googleRevokeURL,
		TwitterRevokeURL:  twitterRevokeURL,
		TiktokRevokeURL:   tiktokRevokeURL,
	}
}

type Connectors struct {
	youtube   *youtubeConnector
	instagram *instagramConnector
	linkedin  *linkedinConnector
	twitter   *twitterConnector
	tiktok    *tiktokConnector
}

func NewConnectors(client *http.Client, endpoints Endpoints) *Connectors {
	return &Connectors{
		youtube:   &youtubeConnector{client: client, revokeURL: endpoints.GoogleRevokeURL},
		instagram: &instagramConnector{client: client, graphURL: endpoints.InstagramGraphURL},
		linkedin:  &linkedinConnector{client: client},
		twitter:   &twitterConnector{client: client, revokeURL: endpoints.TwitterRevokeURL},
		tiktok:    &tiktokConnector{client: client, revokeURL: endpoints.TiktokRevokeURL},
	}
}

func (c *Connectors) For(platform models.Platform) (Connector, error) {
	switch platform {
	case models.PlatformYoutube:
		return c.youtube, nil
	case models.PlatformInstagram:
		return c.instagram, nil
	case models.PlatformLinkedin:
		return c.linkedin, nil
	case models.PlatformTwitter:
		return c.twitter, nil
	case models.PlatformTiktok:
		return c.tiktok, nil
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrPlatformNotFound, platform)
	}
}

func validate(d *models.PlatformDescriptor) error {
	if d == nil {
		return models.ErrPlatformNotFound
	}
	if !d.Configured() {
		return fmt.Errorf("%w: %s", models.ErrPlatformMisconfigured, d.ID)
	}
	return nil
}

// splitScopes accepts both comma and space separated scope strings.
func splitScopes(scope string) []string {
	return strings.FieldsFunc(scope, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func oauth2Config(d *models.PlatformDescriptor, redirectURI string, style oauth2.AuthStyle) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     d.ClientID,
		ClientSecret: d.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       splitScopes(d.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:   d.AuthURL,
			TokenURL:  d.TokenURL,
			AuthStyle: style,
		},
	}
}

func withClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

func fromOAuth2(t *oauth2.Token) *Token {
	token := &Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
	if scope, ok := t.Extra("scope").(string); ok {
		token.Scope = scope
	}
	return token
}

func expiryFrom(expiresIn int64) time.Time {
	if expiresIn <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// exchangeError converts an exchange failure into the typed error.
func exchangeError(platform models.Platform, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		slog.Warn("token exchange rejected", "platform", platform, "status", re.Response.StatusCode, "body", string(re.Body))
		return &models.TokenExchangeError{StatusCode: re.Response.StatusCode, Body: string(re.Body)}
	}
	var te *models.TokenExchangeError
	if errors.As(err, &te) {
		slog.Warn("token exchange rejected", "platform", platform, "status", te.StatusCode, "body", te.Body)
		return te
	}
	slog.Warn("token exchange failed", "platform", platform, "error", err)
	if isTimeout(err) {
		return fmt.Errorf("%w: %w", models.ErrTokenExchangeFailed, models.ErrProviderTimeout)
	}
	return fmt.Errorf("%w: %v", models.ErrTokenExchangeFailed, err)
}

func refreshError(platform models.Platform, err error) error {
	slog.Warn("token refresh failed", "platform", platform, "error", err)
	if isTimeout(err) {
		return fmt.Errorf("%w: %w", models.ErrTokenRefreshFailed, models.ErrProviderTimeout)
	}
	return fmt.Errorf("%w: %v", models.ErrTokenRefreshFailed, err)
}

// postForm sends a form encoded POST and returns the status and body.
func postForm(ctx context.Context, client *http.Client, endpoint string, data url.Values, header http.Header) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	return do(client, req)
}

func get(ctx context.Context, client *http.Client, endpoint string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	return do(client, req)
}

func do(client *http.Client, req *http.Request) (int, []byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodyLength {
		return string(body[:maxErrorBodyLength])
	}
	return string(body)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
