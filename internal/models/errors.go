package models

import (
	"errors"
	"fmt"
)

var (
	ErrPlatformNotFound      = errors.New("platform not supported")
	ErrPlatformMisconfigured = errors.New("platform oauth credentials are not configured")
	ErrInvalidOAuthState     = errors.New("invalid oauth state")
	ErrMissingCode           = errors.New("authorization code is missing")
	ErrTokenExchangeFailed   = errors.New("token exchange failed")
	ErrTokenRefreshFailed    = errors.New("token refresh failed")
	ErrAccountNotFound       = errors.New("social account not found")
	ErrAccountNotConnected   = errors.New("social account needs to be reconnected")
	ErrAnalyticsUnavailable  = errors.New("analytics unavailable")
	ErrProviderTimeout       = errors.New("provider request timed out")

	// ErrProviderUnauthorized marks a 401-equivalent answer from a provider API.
	ErrProviderUnauthorized = errors.New("provider rejected access token")
	// ErrStaleToken is returned when a conditional token update lost the race.
	ErrStaleToken = errors.New("stored token changed concurrently")
)

// TokenExchangeError carries the provider answer of a failed code exchange.
// Body is for logs only.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d", e.StatusCode)
}

func (e *TokenExchangeError) Is(target error) bool {
	return target == ErrTokenExchangeFailed
}
