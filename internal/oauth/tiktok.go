package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/transfer"
)

// tiktokConnector uses client_key where every other provider uses client_id,
// and joins scopes with commas.
type tiktokConnector struct {
	client    *http.Client
	revokeURL string
}

func (c *tiktokConnector) AuthorizationURL(d *models.PlatformDescriptor, redirectURI, state, verifier string) (string, error) {
	if err := validate(d); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Add("client_key", d.ClientID)
	params.Add("scope", strings.Join(splitScopes(d.Scope), ","))
	params.Add("response_type", "code")
	params.Add("redirect_uri", redirectURI)
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", d.AuthURL, params.Encode()), nil
}

func (c *tiktokConnector) ExchangeCode(ctx context.Context, d *models.PlatformDescriptor, redirectURI, code, verifier string) (*Token, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	data := url.Values{}
	data.Add("client_key", d.ClientID)
	data.Add("client_secret", d.ClientSecret)
	data.Add("code", code)
	data.Add("grant_type", "authorization_code")
	data.Add("redirect_uri", redirectURI)

	status, body, err := postForm(ctx, c.client, d.TokenURL, data, nil)
	if err != nil {
		return nil, exchangeError(d.ID, err)
	}

	token, err := parseTiktokToken(status, body)
	if err != nil {
		return nil, exchangeError(d.ID, err)
	}

	return token, nil
}

func (c *tiktokConnector) RefreshAccessToken(ctx context.Context, d *models.PlatformDescriptor, refreshToken string) (*Token, error) {
	if err := validate(d); err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", models.ErrTokenRefreshFailed)
	}

	data := url.Values{}
	data.Set("client_key", d.ClientID)
	data.Set("client_secret", d.ClientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	status, body, err := postForm(ctx, c.client, d.TokenURL, data, nil)
	if err != nil {
		return nil, refreshError(d.ID, err)
	}

	token, err := parseTiktokToken(status, body)
	if err != nil {
		return nil, refreshError(d.ID, err)
	}

	return token, nil
}

func (c *tiktokConnector) Revoke(ctx context.Context, d *models.PlatformDescriptor, accessToken string) error {
	data := url.Values{}
	data.Set("client_key", d.ClientID)
	data.Set("client_secret", d.ClientSecret)
	data.Set("token", accessToken)

	status, body, err := postForm(ctx, c.client, c.revokeURL, data, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if !isSuccess(status) {
		return fmt.Errorf("failed to revoke token, status code: %d: %s", status, truncate(body))
	}
	return nil
}

// parseTiktokToken handles TikTok answering some failures with a 200 and an
// error field.
func parseTiktokToken(status int, body []byte) (*Token, error) {
	if !isSuccess(status) {
		return nil, &models.TokenExchangeError{StatusCode: status, Body: truncate(body)}
	}

	var resp transfer.TiktokTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if resp.Error != "" || resp.AccessToken == "" {
		return nil, &models.TokenExchangeError{StatusCode: status, Body: truncate(body)}
	}

	return &Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Expiry:       expiryFrom(resp.ExpiresIn),
		Scope:        resp.Scope,
	}, nil
}
