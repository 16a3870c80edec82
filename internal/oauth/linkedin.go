package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"golang.org/x/oauth2"
)

type linkedinConnector struct {
	client *http.Client
}

// AuthorizationURL keeps LinkedIn's documented parameter order, which
// url.Values would sort away.
func (c *linkedinConnector) AuthorizationURL(d *models.PlatformDescriptor, redirectURI, state, verifier string) (string, error) {
	if err := validate(d); err != nil {
		return "", err
	}

	params := []string{
		"response_type=code",
		"client_id=" + queryEscape(d.ClientID),
		"redirect_uri=" + queryEscape(redirectURI),
		"state=" + queryEscape(state),
		"scope=" + queryEscape(strings.Join(splitScopes(d.Scope), " ")),
	}

	sep := "?"
	if strings.Contains(d.AuthURL, "?") {
		sep = "&"
	}
	return d.AuthURL + sep + strings.Join(params, "&"), nil
}

// ExchangeCode repeats redirect_uri and sends the client credentials in the
// form body, as LinkedIn rejects HTTP basic auth on the token endpoint.
func (c *linkedinConnector) ExchangeCode(ctx context.Context, d *models.PlatformDescriptor, redirectURI, code, verifier string) (*Token, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	conf := oauth2Config(d, redirectURI, oauth2.AuthStyleInParams)
	token, err := conf.Exchange(withClient(ctx, c.client), code)
	if err != nil {
		return nil, exchangeError(d.ID, err)
	}

	return fromOAuth2(token), nil
}

func (c *linkedinConnector) RefreshAccessToken(ctx context.Context, d *models.PlatformDescriptor, refreshToken string) (*Token, error) {
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

func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
