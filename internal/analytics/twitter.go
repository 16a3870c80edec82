package analytics

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/transfer"
)

type twitterFetcher struct {
	api     apiClient
	baseURL string
}

func (f *twitterFetcher) me(ctx context.Context, accessToken string) (*transfer.TwitterUserResponse, error) {
	endpoint := f.baseURL + "/2/users/me?user.fields=" + url.QueryEscape("profile_image_url,public_metrics,verified")

	var resp transfer.TwitterUserResponse
	if err := f.api.getJSON(ctx, endpoint, bearer(accessToken), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// tweets asks for at least 5 results, the API minimum.
func (f *twitterFetcher) tweets(ctx context.Context, accessToken, userID string, max int) ([]transfer.TwitterTweet, error) {
	params := url.Values{}
	params.Set("max_results", strconv.Itoa(clampLimit(max, 5, 100)))
	params.Set("tweet.fields", "created_at,public_metrics")
	endpoint := f.baseURL + "/2/users/" + url.PathEscape(userID) + "/tweets?" + params.Encode()

	var resp transfer.TwitterTweetsResponse
	if err := f.api.getJSON(ctx, endpoint, bearer(accessToken), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (f *twitterFetcher) FetchProfile(ctx context.Context, accessToken string) (*models.PlatformProfile, error) {
	resp, err := f.me(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	return &models.PlatformProfile{
		ID:             resp.Data.ID,
		Username:       resp.Data.Username,
		Name:           resp.Data.Name,
		ProfilePicture: resp.Data.ProfileImageURL,
		Permissions:    map[string]any{"verified": resp.Data.Verified},
	}, nil
}

func (f *twitterFetcher) FetchAnalytics(ctx context.Context, accessToken string, account *models.SocialAccount) (*RawMetrics, error) {
	resp, err := f.me(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	pm := resp.Data.PublicMetrics
	m := &TwitterMetrics{
		Followers: pm.FollowersCount,
		Following: pm.FollowingCount,
		Tweets:    pm.TweetCount,
		Listed:    pm.ListedCount,
	}

	warnings := runSubFetches(ctx, models.PlatformTwitter, subFetch{
		name: "recent tweets",
		run: func(ctx context.Context) error {
			tweets, err := f.tweets(ctx, accessToken, resp.Data.ID, recentSampleSize)
			if err != nil {
				return err
			}
			m.RecentTweets = int64(len(tweets))
			for _, t := range tweets {
				m.Likes += t.PublicMetrics.LikeCount
				m.Retweets += t.PublicMetrics.RetweetCount
				m.Replies += t.PublicMetrics.ReplyCount
				m.Quotes += t.PublicMetrics.QuoteCount
				m.Impressions += t.PublicMetrics.ImpressionCount
			}
			return nil
		},
	})

	return &RawMetrics{Platform: models.PlatformTwitter, Twitter: m, Warnings: warnings}, nil
}

func (f *twitterFetcher) FetchRecentContent(ctx context.Context, accessToken string, account *models.SocialAccount, limit int) ([]models.ContentItem, error) {
	tweets, err := f.tweets(ctx, accessToken, account.AccountID, limit)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(tweets) > limit {
		tweets = tweets[:limit]
	}

	items := make([]models.ContentItem, 0, len(tweets))
	for _, t := range tweets {
		items = append(items, models.ContentItem{
			ID:           t.ID,
			Title:        t.Text,
			URL:          "https://x.com/i/web/status/" + t.ID,
			MediaType:    "tweet",
			PublishedAt:  parseTime(time.RFC3339, t.CreatedAt),
			LikeCount:    t.PublicMetrics.LikeCount,
			CommentCount: t.PublicMetrics.ReplyCount,
			ShareCount:   t.PublicMetrics.RetweetCount + t.PublicMetrics.QuoteCount,
			ViewCount:    t.PublicMetrics.ImpressionCount,
		})
	}
	return items, nil
}
