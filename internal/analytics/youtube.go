package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type youtubeFetcher struct {
	client   *http.Client
	endpoint string
}

func (f *youtubeFetcher) service(ctx context.Context, accessToken string) (*youtube.Service, error) {
	base := f.client
	if base == nil {
		base = http.DefaultClient
	}

	httpClient := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, base),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
	)
	httpClient.Timeout = base.Timeout

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}
	return youtube.NewService(ctx, opts...)
}

func (f *youtubeFetcher) channel(ctx context.Context, accessToken string, parts ...string) (*youtube.Channel, error) {
	svc, err := f.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Channels.List(parts).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, youtubeError(err)
	}
	if len(resp.Items) == 0 {
		return nil, errors.New("no youtube channel found for this account")
	}
	return resp.Items[0], nil
}

func (f *youtubeFetcher) FetchProfile(ctx context.Context, accessToken string) (*models.PlatformProfile, error) {
	ch, err := f.channel(ctx, accessToken, "snippet")
	if err != nil {
		return nil, err
	}

	profile := &models.PlatformProfile{ID: ch.Id}
	if ch.Snippet != nil {
		profile.Name = ch.Snippet.Title
		profile.Username = ch.Snippet.CustomUrl
		if ch.Snippet.Thumbnails != nil && ch.Snippet.Thumbnails.Default != nil {
			profile.ProfilePicture = ch.Snippet.Thumbnails.Default.Url
		}
	}
	return profile, nil
}

func (f *youtubeFetcher) FetchAnalytics(ctx context.Context, accessToken string, account *models.SocialAccount) (*RawMetrics, error) {
	ch, err := f.channel(ctx, accessToken, "snippet", "statistics")
	if err != nil {
		return nil, err
	}

	m := &YoutubeMetrics{ChannelID: ch.Id}
	if ch.Snippet != nil {
		m.ChannelTitle = ch.Snippet.Title
	}
	if st := ch.Statistics; st != nil {
		m.SubscriberCount = int64(st.SubscriberCount)
		m.VideoCount = int64(st.VideoCount)
		m.ViewCount = int64(st.ViewCount)
		m.HiddenSubscriberCount = st.HiddenSubscriberCount
	}

	return &RawMetrics{Platform: models.PlatformYoutube, Youtube: m}, nil
}

func (f *youtubeFetcher) FetchRecentContent(ctx context.Context, accessToken string, account *models.SocialAccount, limit int) ([]models.ContentItem, error) {
	svc, err := f.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	search, err := svc.Search.List([]string{"snippet"}).
		ChannelId(account.AccountID).
		Type("video").
		Order("date").
		MaxResults(int64(clampLimit(limit, 1, 50))).
		Context(ctx).
		Do()
	if err != nil {
		return nil, youtubeError(err)
	}

	items := make([]models.ContentItem, 0, len(search.Items))
	index := make(map[string]int, len(search.Items))
	ids := make([]string, 0, len(search.Items))
	for _, r := range search.Items {
		if r.Id == nil || r.Id.VideoId == "" {
			continue
		}
		item := models.ContentItem{
			ID:        r.Id.VideoId,
			URL:       "https://www.youtube.com/watch?v=" + r.Id.VideoId,
			MediaType: "video",
		}
		if r.Snippet != nil {
			item.Title = r.Snippet.Title
			item.PublishedAt = parseTime(time.RFC3339, r.Snippet.PublishedAt)
			if r.Snippet.Thumbnails != nil && r.Snippet.Thumbnails.Medium != nil {
				item.ThumbnailURL = r.Snippet.Thumbnails.Medium.Url
			}
		}
		index[item.ID] = len(items)
		ids = append(ids, item.ID)
		items = append(items, item)
	}

	if len(ids) == 0 {
		return items, nil
	}

	// Per-video counters are a second call; search results stand on their own
	// if it fails.
	videos, err := svc.Videos.List([]string{"statistics"}).Id(ids...).Context(ctx).Do()
	if err != nil {
		return items, nil
	}
	for _, v := range videos.Items {
		i, ok := index[v.Id]
		if !ok || v.Statistics == nil {
			continue
		}
		items[i].ViewCount = int64(v.Statistics.ViewCount)
		items[i].LikeCount = int64(v.Statistics.LikeCount)
		items[i].CommentCount = int64(v.Statistics.CommentCount)
	}
	return items, nil
}

func youtubeError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusUnauthorized {
			return models.ErrProviderUnauthorized
		}
		return &ProviderError{StatusCode: gerr.Code, Body: gerr.Message}
	}
	if perr := providerError(err); errors.Is(perr, models.ErrProviderTimeout) {
		return perr
	}
	return fmt.Errorf("youtube request failed: %w", err)
}

func parseTime(layout, value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return nil
	}
	return &t
}
