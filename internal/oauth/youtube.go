package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"golang.org/x/oauth2"
)

type youtubeConnector struct {
	client    *http.Client
	revokeURL string
}

// AuthorizationURL forces offline access and the consent prompt so Google
// issues a refresh token on every connect.
func (c *youtubeConnector) AuthorizationURL(d *models.PlatformDescriptor, redirectURI, state, verifier string) (string, error) {
	if err := validate(d); err != nil {
		return "", err
	}

	conf := oauth2Config(d, redirectURI, oauth2.AuthStyleInParams)
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

func (c *youtubeConnector) ExchangeCode(ctx context.Context, d *models.PlatformDescriptor, redirectURI, code, verifier string) (*Token, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	conf := oauth2Config(d, redirectURI, oauth2.AuthStyleInParams)
	token, err := conf.Exchange(withClient(ctx, c.client), code)
	if err != nil {
		return nil, exchangeError(d.ID, err)
	}

	if token.RefreshToken == "" {
		slog.Warn("google returned no refresh token", "platform", d.ID)
	}

	return fromOAuth2(token), nil
}

func (c *youtubeConnector) RefreshAccessToken(ctx context.Context, d *models.PlatformDescriptor, refreshToken string) (*Token, error) {
	if err := validate(d); err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", models.ErrTokenRefreshFailed)
	}

	conf := oauth2Config(d, "", oauth2.AuthStyleInParams)
	token, err := conf.TokenSource(withClient(ctx, c.client), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, refreshError(d.ID, err)
	}

	return fromOAuth2(token), nil
}

func (c *youtubeConnector) Revoke(ctx context.Context, d *models.PlatformDescriptor, accessToken string) error {
	status, body, err := postForm(ctx, c.client, c.revokeURL, url.Values{"token": {accessToken}}, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if !isSuccess(status) {
		return fmt.Errorf("failed to revoke token, status code: %d: %s", status, truncate(body))
	}
	return nil
}
