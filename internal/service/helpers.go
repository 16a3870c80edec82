package service

import (
	"time"

	"github.com/maheshrc27/socialsync-api/internal/analytics"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/oauth"
)

// ConnectorSource selects the OAuth dialect of a platform. *oauth.Connectors
// satisfies it.
type ConnectorSource interface {
	For(platform models.Platform) (oauth.Connector, error)
}

// FetcherSource selects the analytics client of a platform. *analytics.Fetchers
// satisfies it.
type FetcherSource interface {
	For(platform models.Platform) (analytics.Fetcher, error)
}

// expiresAt converts a token expiry into the nullable column value.
func expiresAt(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}
