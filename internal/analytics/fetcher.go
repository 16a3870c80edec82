package analytics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/maheshrc27/socialsync-api/internal/models"
)

const (
	defaultInstagramGraphURL = "https://graph.instagram.com"
	defaultLinkedinAPIURL    = "https://api.linkedin.com"
	defaultTwitterAPIURL     = "https://api.twitter.com"
	defaultTiktokAPIURL      = "https://open.tiktokapis.com"

	recentSampleSize = 20
)

// Fetcher reads one platform's API with an already decrypted access token.
// A rejected token surfaces as models.ErrProviderUnauthorized so the caller
// can refresh and retry.
type Fetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*models.PlatformProfile, error)
	FetchAnalytics(ctx context.Context, accessToken string, account *models.SocialAccount) (*RawMetrics, error)
	FetchRecentContent(ctx context.Context, accessToken string, account *models.SocialAccount, limit int) ([]models.ContentItem, error)
}

// BaseURLs overrides provider API hosts. Empty fields use the public APIs.
type BaseURLs struct {
	YoutubeEndpoint   string
	InstagramGraphURL string
	LinkedinAPIURL    string
	TwitterAPIURL     string
	TiktokAPIURL      string
}

type Fetchers struct {
	youtube   *youtubeFetcher
	instagram *instagramFetcher
	linkedin  *linkedinFetcher
	twitter   *twitterFetcher
	tiktok    *tiktokFetcher
}

func NewFetchers(client *http.Client, urls BaseURLs) *Fetchers {
	api := apiClient{http: client}
	return &Fetchers{
		youtube:   &youtubeFetcher{client: client, endpoint: urls.YoutubeEndpoint},
		instagram: &instagramFetcher{api: api, baseURL: orDefault(urls.InstagramGraphURL, defaultInstagramGraphURL)},
		linkedin:  &linkedinFetcher{api: api, baseURL: orDefault(urls.LinkedinAPIURL, defaultLinkedinAPIURL)},
		twitter:   &twitterFetcher{api: api, baseURL: orDefault(urls.TwitterAPIURL, defaultTwitterAPIURL)},
		tiktok:    &tiktokFetcher{api: api, baseURL: orDefault(urls.TiktokAPIURL, defaultTiktokAPIURL)},
	}
}

func (f *Fetchers) For(platform models.Platform) (Fetcher, error) {
	switch platform {
	case models.PlatformYoutube:
		return f.youtube, nil
	case models.PlatformInstagram:
		return f.instagram, nil
	case models.PlatformLinkedin:
		return f.linkedin, nil
	case models.PlatformTwitter:
		return f.twitter, nil
	case models.PlatformTiktok:
		return f.tiktok, nil
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrPlatformNotFound, platform)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
