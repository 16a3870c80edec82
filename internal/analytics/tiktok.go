package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/transfer"
)

const (
	tiktokProfileFields = "open_id,union_id,avatar_url,display_name,username"
	tiktokStatsFields   = "open_id,display_name,username,is_verified,follower_count,following_count,likes_count,video_count"
	tiktokVideoFields   = "id,title,cover_image_url,share_url,create_time,view_count,like_count,comment_count,share_count"

	tiktokMaxVideos = 20
)

type tiktokFetcher struct {
	api     apiClient
	baseURL string
}

func (f *tiktokFetcher) user(ctx context.Context, accessToken, fields string) (*transfer.TiktokUser, error) {
	var resp transfer.TiktokUserResponse
	if err := f.api.getJSON(ctx, f.baseURL+"/v2/user/info/?fields="+fields, bearer(accessToken), &resp); err != nil {
		return nil, tiktokError(err)
	}
	if err := tiktokAPIError(resp.Error); err != nil {
		return nil, err
	}
	return &resp.Data.User, nil
}

func (f *tiktokFetcher) videos(ctx context.Context, accessToken string, max int) ([]transfer.TiktokVideo, error) {
	body := map[string]int{"max_count": clampLimit(max, 1, tiktokMaxVideos)}

	var resp transfer.TiktokVideoListResponse
	if err := f.api.postJSON(ctx, f.baseURL+"/v2/video/list/?fields="+tiktokVideoFields, bearer(accessToken), body, &resp); err != nil {
		return nil, tiktokError(err)
	}
	if err := tiktokAPIError(resp.Error); err != nil {
		return nil, err
	}
	return resp.Data.Videos, nil
}

func (f *tiktokFetcher) FetchProfile(ctx context.Context, accessToken string) (*models.PlatformProfile, error) {
	u, err := f.user(ctx, accessToken, tiktokProfileFields)
	if err != nil {
		return nil, err
	}

	return &models.PlatformProfile{
		ID:             u.OpenID,
		Username:       u.Username,
		Name:           u.DisplayName,
		ProfilePicture: u.AvatarURL,
		Permissions:    map[string]any{"union_id": u.UnionID},
	}, nil
}

func (f *tiktokFetcher) FetchAnalytics(ctx context.Context, accessToken string, account *models.SocialAccount) (*RawMetrics, error) {
	u, err := f.user(ctx, accessToken, tiktokStatsFields)
	if err != nil {
		return nil, err
	}

	m := &TiktokMetrics{
		Followers:  u.FollowerCount,
		Following:  u.FollowingCount,
		TotalLikes: u.LikesCount,
		Videos:     u.VideoCount,
		Verified:   u.IsVerified,
	}

	warnings := runSubFetches(ctx, models.PlatformTiktok, subFetch{
		name: "recent videos",
		run: func(ctx context.Context) error {
			videos, err := f.videos(ctx, accessToken, recentSampleSize)
			if err != nil {
				return err
			}
			m.RecentVideos = int64(len(videos))
			for _, v := range videos {
				m.Views += v.ViewCount
				m.Likes += v.LikeCount
				m.Comments += v.CommentCount
				m.Shares += v.ShareCount
			}
			return nil
		},
	})

	return &RawMetrics{Platform: models.PlatformTiktok, Tiktok: m, Warnings: warnings}, nil
}

func (f *tiktokFetcher) FetchRecentContent(ctx context.Context, accessToken string, account *models.SocialAccount, limit int) ([]models.ContentItem, error) {
	videos, err := f.videos(ctx, accessToken, limit)
	if err != nil {
		return nil, err
	}

	items := make([]models.ContentItem, 0, len(videos))
	for _, v := range videos {
		item := models.ContentItem{
			ID:           v.ID,
			Title:        v.Title,
			URL:          v.ShareURL,
			ThumbnailURL: v.CoverImageURL,
			MediaType:    "video",
			LikeCount:    v.LikeCount,
			CommentCount: v.CommentCount,
			ShareCount:   v.ShareCount,
			ViewCount:    v.ViewCount,
		}
		if v.CreateTime > 0 {
			t := time.Unix(v.CreateTime, 0).UTC()
			item.PublishedAt = &t
		}
		items = append(items, item)
	}
	return items, nil
}

// tiktokAPIError turns the envelope error into a Go error. TikTok reports
// "ok" on success.
func tiktokAPIError(e transfer.TiktokError) error {
	switch e.Code {
	case "", "ok":
		return nil
	case "access_token_invalid":
		return models.ErrProviderUnauthorized
	}
	return fmt.Errorf("tiktok api error %s: %s", e.Code, e.Message)
}

func tiktokError(err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) {
		var body struct {
			Error transfer.TiktokError `json:"error"`
		}
		if json.Unmarshal([]byte(perr.Body), &body) == nil && body.Error.Code == "access_token_invalid" {
			return models.ErrProviderUnauthorized
		}
	}
	return err
}
