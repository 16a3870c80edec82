package models

import (
	"encoding/json"
	"time"
)

type AccountStatus string

const (
	AccountStatusConnected AccountStatus = "connected"
	AccountStatusExpired   AccountStatus = "expired"
	AccountStatusRevoked   AccountStatus = "revoked"
	AccountStatusError     AccountStatus = "error"
)

type SocialAccount struct {
	ID              int64           `db:"id" json:"id"`
	UserID          int64           `db:"user_id" json:"user_id"`
	Platform        Platform        `db:"platform" json:"platform"`
	AccountID       string          `db:"account_id" json:"platform_user_id"`
	AccountName     string          `db:"account_name" json:"account_name"`
	AccountUsername string          `db:"account_username" json:"account_username"`
	ProfilePicture  string          `db:"profile_picture_url" json:"profile_picture"`
	AccessToken     string          `db:"access_token" json:"-"`
	RefreshToken    string          `db:"refresh_token" json:"-"`
	TokenExpiresAt  *time.Time      `db:"token_expires_at" json:"token_expires_at,omitempty"`
	AccountStatus   AccountStatus   `db:"account_status" json:"status"`
	Permissions     json.RawMessage `db:"permissions" json:"permissions,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`

	// StoredStatus is the persisted value before lazy expiry was applied.
	StoredStatus AccountStatus `db:"-" json:"-"`
}

// TokenExpired reports whether the access token expiry has been reached.
func (sa *SocialAccount) TokenExpired(now time.Time) bool {
	return sa.TokenExpiresAt != nil && !now.Before(*sa.TokenExpiresAt)
}

// ApplyExpiry recomputes the effective status from the token expiry.
// Revoked and error accounts keep their status.
func (sa *SocialAccount) ApplyExpiry(now time.Time) {
	if sa.StoredStatus == "" {
		sa.StoredStatus = sa.AccountStatus
	}
	if sa.AccountStatus == AccountStatusConnected && sa.TokenExpired(now) {
		sa.AccountStatus = AccountStatusExpired
	}
}

// AutoRefreshable reports whether background refresh may still be attempted.
// A failed refresh persists the expired status, which stops further attempts
// until the user reconnects.
func (sa *SocialAccount) AutoRefreshable() bool {
	stored := sa.StoredStatus
	if stored == "" {
		stored = sa.AccountStatus
	}
	return stored == AccountStatusConnected && sa.RefreshToken != ""
}

// PlatformProfile is the provider identity returned right after a code exchange.
type PlatformProfile struct {
	ID             string
	Username       string
	Name           string
	ProfilePicture string
	Permissions    map[string]any
}
