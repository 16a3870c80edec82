package models

import "time"

type Platform string

const (
	PlatformYoutube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedin  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformTiktok    Platform = "tiktok"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{
	PlatformInstagram,
	PlatformYoutube,
	PlatformLinkedin,
	PlatformTwitter,
	PlatformTiktok,
}

// ParsePlatform maps a raw identifier onto the Platform enum.
func ParsePlatform(s string) (Platform, bool) {
	switch p := Platform(s); p {
	case PlatformYoutube, PlatformInstagram, PlatformLinkedin, PlatformTwitter, PlatformTiktok:
		return p, true
	default:
		return "", false
	}
}

type PlatformDescriptor struct {
	ID           Platform  `db:"id" json:"id"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	IconClass    string    `db:"icon_class" json:"icon_class"`
	ColorClass   string    `db:"color_class" json:"color_class"`
	AuthURL      string    `db:"auth_url" json:"-"`
	TokenURL     string    `db:"token_url" json:"-"`
	Scope        string    `db:"scope" json:"scope"`
	ClientID     string    `db:"client_id" json:"-"`
	ClientSecret string    `db:"client_secret" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

// Configured reports whether OAuth client credentials were provisioned.
func (d *PlatformDescriptor) Configured() bool {
	return d.ClientID != "" && d.ClientSecret != ""
}

// OAuthTransaction is the short-lived record of one authorize/callback round trip.
type OAuthTransaction struct {
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier"`
	RedirectURI  string    `json:"redirect_uri"`
	CreatedAt    time.Time `json:"created_at"`
}
