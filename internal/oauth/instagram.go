package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/transfer"
)

// instagramConnector implements Instagram Login. The code yields a one hour
// token which is swapped for a 60 day token right away. Long-lived tokens are
// refreshed with themselves, so the long-lived token doubles as refresh token.
type instagramConnector struct {
	client   *http.Client
	graphURL string
}

func (c *instagramConnector) AuthorizationURL(d *models.PlatformDescriptor, redirectURI, state, verifier string) (string, error) {
	if err := validate(d); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Add("client_id", d.ClientID)
	params.Add("scope", strings.Join(splitScopes(d.Scope), ","))
	params.Add("response_type", "code")
	params.Add("redirect_uri", redirectURI)
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", d.AuthURL, params.Encode()), nil
}

func (c *instagramConnector) ExchangeCode(ctx context.Context, d *models.PlatformDescriptor, redirectURI, code, verifier string) (*Token, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	shortLived, err := c.shortLivedToken(ctx, d, redirectURI, code)
	if err != nil {
		return nil, exchangeError(d.ID, err)
	}

	longLived, err := c.longLivedToken(ctx, d, shortLived.AccessToken)
	if err != nil {
		return nil, exchangeError(d.ID, err)
	}

	return &Token{
		AccessToken:  longLived.AccessToken,
		RefreshToken: longLived.AccessToken,
		Expiry:       expiryFrom(longLived.ExpiresIn),
		Scope:        shortLived.Permissions,
	}, nil
}

func (c *instagramConnector) shortLivedToken(ctx context.Context, d *models.PlatformDescriptor, redirectURI, code string) (*transfer.InstagramShortLivedToken, error) {
	data := url.Values{}
	data.Set("client_id", d.ClientID)
	data.Set("client_secret", d.ClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", redirectURI)
	data.Set("code", code)

	status, body, err := postForm(ctx, c.client, d.TokenURL, data, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &models.TokenExchangeError{StatusCode: status, Body: truncate(body)}
	}

	var result transfer.InstagramShortLivedToken
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return nil, &models.TokenExchangeError{StatusCode: status, Body: truncate(body)}
	}

	return &result, nil
}

func (c *instagramConnector) longLivedToken(ctx context.Context, d *models.PlatformDescriptor, shortLivedToken string) (*transfer.InstagramLongLivedToken, error) {
	params := url.Values{}
	params.Set("grant_type", "ig_exchange_token")
	params.Set("client_secret", d.ClientSecret)
	params.Set("access_token", shortLivedToken)

	status, body, err := get(ctx, c.client, c.graphURL+"/access_token?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &models.TokenExchangeError{StatusCode: status, Body: truncate(body)}
	}

	var result transfer.InstagramLongLivedToken
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode long-lived token response: %w", err)
	}

	return &result, nil
}

func (c *instagramConnector) RefreshAccessToken(ctx context.Context, d *models.PlatformDescriptor, refreshToken string) (*Token, error) {
	if err := validate(d); err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", models.ErrTokenRefreshFailed)
	}

	params := url.Values{}
	params.Set("grant_type", "ig_refresh_token")
	params.Set("access_token", refreshToken)

	status, body, err := get(ctx, c.client, c.graphURL+"/refresh_access_token?"+params.Encode())
	if err != nil {
		return nil, refreshError(d.ID, err)
	}
	if !isSuccess(status) {
		return nil, refreshError(d.ID, fmt.Errorf("status %d: %s", status, truncate(body)))
	}

	var result transfer.InstagramLongLivedToken
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, refreshError(d.ID, err)
	}
	if result.AccessToken == "" {
		return nil, refreshError(d.ID, fmt.Errorf("status %d: empty access token: %s", status, truncate(body)))
	}

	return &Token{
		AccessToken:  result.AccessToken,
		RefreshToken: result.AccessToken,
		Expiry:       expiryFrom(result.ExpiresIn),
	}, nil
}
