package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/transfer"
)

const (
	instagramProfileFields = "id,username,name,account_type,profile_picture_url"
	instagramStatsFields   = "id,username,followers_count,follows_count,media_count"
	instagramMediaFields   = "id,media_type,media_url,thumbnail_url,permalink,caption,timestamp,like_count,comments_count"

	// Graph API reports invalid or expired tokens with this code, usually on a 400.
	instagramInvalidTokenCode = 190
)

type instagramFetcher struct {
	api     apiClient
	baseURL string
}

func (f *instagramFetcher) endpoint(path string, params url.Values) string {
	return f.baseURL + path + "?" + params.Encode()
}

func (f *instagramFetcher) me(ctx context.Context, accessToken, fields string) (*transfer.InstagramUserInfo, error) {
	params := url.Values{}
	params.Set("fields", fields)
	params.Set("access_token", accessToken)

	var info transfer.InstagramUserInfo
	if err := f.api.getJSON(ctx, f.endpoint("/me", params), nil, &info); err != nil {
		return nil, instagramError(err)
	}
	return &info, nil
}

func (f *instagramFetcher) media(ctx context.Context, accessToken string, limit int) ([]transfer.InstagramMedia, error) {
	params := url.Values{}
	params.Set("fields", instagramMediaFields)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("access_token", accessToken)

	var resp transfer.InstagramMediaResponse
	if err := f.api.getJSON(ctx, f.endpoint("/me/media", params), nil, &resp); err != nil {
		return nil, instagramError(err)
	}
	return resp.Data, nil
}

func (f *instagramFetcher) FetchProfile(ctx context.Context, accessToken string) (*models.PlatformProfile, error) {
	info, err := f.me(ctx, accessToken, instagramProfileFields)
	if err != nil {
		return nil, err
	}

	return &models.PlatformProfile{
		ID:             info.UserID,
		Username:       info.Username,
		Name:           info.Name,
		ProfilePicture: info.ProfilePicture,
		Permissions:    map[string]any{"account_type": info.AccountType},
	}, nil
}

func (f *instagramFetcher) FetchAnalytics(ctx context.Context, accessToken string, account *models.SocialAccount) (*RawMetrics, error) {
	info, err := f.me(ctx, accessToken, instagramStatsFields)
	if err != nil {
		return nil, err
	}

	m := &InstagramMetrics{
		Followers:  info.FollowersCount,
		Following:  info.FollowsCount,
		MediaCount: info.MediaCount,
	}

	warnings := runSubFetches(ctx, models.PlatformInstagram, subFetch{
		name: "recent media",
		run: func(ctx context.Context) error {
			media, err := f.media(ctx, accessToken, 25)
			if err != nil {
				return err
			}
			for _, item := range media {
				m.Likes += item.LikeCount
				m.Comments += item.CommentsCount
			}
			m.PostCount = int64(len(media))
			return nil
		},
	})

	return &RawMetrics{Platform: models.PlatformInstagram, Instagram: m, Warnings: warnings}, nil
}

func (f *instagramFetcher) FetchRecentContent(ctx context.Context, accessToken string, account *models.SocialAccount, limit int) ([]models.ContentItem, error) {
	media, err := f.media(ctx, accessToken, clampLimit(limit, 1, 100))
	if err != nil {
		return nil, err
	}

	items := make([]models.ContentItem, 0, len(media))
	for _, m := range media {
		thumb := m.ThumbnailURL
		if thumb == "" {
			thumb = m.MediaURL
		}
		items = append(items, models.ContentItem{
			ID:           m.ID,
			Title:        m.Caption,
			URL:          m.Permalink,
			ThumbnailURL: thumb,
			MediaType:    m.MediaType,
			PublishedAt:  parseTime("2006-01-02T15:04:05-0700", m.Timestamp),
			LikeCount:    m.LikeCount,
			CommentCount: m.CommentsCount,
		})
	}
	return items, nil
}

func instagramError(err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) {
		var body transfer.InstagramErrorResponse
		if json.Unmarshal([]byte(perr.Body), &body) == nil && body.Error.Code == instagramInvalidTokenCode {
			return models.ErrProviderUnauthorized
		}
	}
	return err
}
