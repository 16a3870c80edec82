package oauth

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"golang.org/x/oauth2"
)

// twitterConnector speaks OAuth 2.0 with PKCE. Confidential clients
// authenticate with HTTP basic auth.
type twitterConnector struct {
	client    *http.Client
	revokeURL string
}

func (c *twitterConnector) AuthorizationURL(d *models.PlatformDescriptor, redirectURI, state, verifier string) (string, error) {
	if err := validate(d); err != nil {
		return "", err
	}

	conf := oauth2Config(d, redirectURI, oauth2.AuthStyleInHeader)
	if verifier == "" {
		return conf.AuthCodeURL(state), nil
	}
	return conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

func (c *twitterConnector) ExchangeCode(ctx context.Context, d *models.PlatformDescriptor, redirectURI, code, verifier string) (*Token, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	conf := oauth2Config(d, redirectURI, oauth2.AuthStyleInHeader)
	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	token, err := conf.Exchange(withClient(ctx, c.client), code, opts...)
	if err != nil {
		return nil, exchangeError(d.ID, err)
	}

	return fromOAuth2(token), nil
}

func (c *twitterConnector) RefreshAccessToken(ctx context.Context, d *models.PlatformDescriptor, refreshToken string) (*Token, error) {
	if err := validate(d); err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", models.ErrTokenRefreshFailed)
	}

	conf := oauth2Config(d, "", oauth2.AuthStyleInHeader)
	token, err := conf.TokenSource(withClient(ctx, c.client), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, refreshError(d.ID, err)
	}

	return fromOAuth2(token), nil
}

func (c *twitterConnector) Revoke(ctx context.Context, d *models.PlatformDescriptor, accessToken string) error {
	data := url.Values{}
	data.Set("token", accessToken)
	data.Set("token_type_hint", "access_token")

	header := http.Header{}
	header.Set("Authorization", basicAuth(d.ClientID, d.ClientSecret))

	status, body, err := postForm(ctx, c.client, c.revokeURL, data, header)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if !isSuccess(status) {
		return fmt.Errorf("failed to revoke token, status code: %d: %s", status, truncate(body))
	}
	return nil
}

func basicAuth(clientID, clientSecret string) string {
	creds := url.QueryEscape(clientID) + ":" + url.QueryEscape(clientSecret)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}
