package analytics

import (
	"fmt"
	"math"

	"github.com/maheshrc27/socialsync-api/internal/models"
)

// Normalize maps a platform's raw metrics onto the unified schema. It does no
// I/O; the caller stamps AccountID and LastUpdated.
func Normalize(platform models.Platform, raw *RawMetrics) (*models.UnifiedAnalytics, error) {
	if raw == nil {
		return nil, fmt.Errorf("no metrics to normalize for %s", platform)
	}
	if raw.Platform != platform {
		return nil, fmt.Errorf("metrics for %s cannot be normalized as %s", raw.Platform, platform)
	}

	u := &models.UnifiedAnalytics{Platform: platform, Extras: map[string]any{}}
	if len(raw.Warnings) > 0 {
		u.Warnings = append([]string(nil), raw.Warnings...)
	}

	switch platform {
	case models.PlatformYoutube:
		m := raw.Youtube
		if m == nil {
			break
		}
		if !m.HiddenSubscriberCount {
			u.FollowerCount = models.Int64(m.SubscriberCount)
		}
		u.PostCount = models.Int64(m.VideoCount)
		u.ViewCount = models.Int64(m.ViewCount)
		u.Extras["channel_id"] = m.ChannelID
		u.Extras["channel_title"] = m.ChannelTitle
		u.Extras["hidden_subscriber_count"] = m.HiddenSubscriberCount
		return u, nil

	case models.PlatformInstagram:
		m := raw.Instagram
		if m == nil {
			break
		}
		u.FollowerCount = models.Int64(m.Followers)
		u.FollowingCount = models.Int64(m.Following)
		u.PostCount = models.Int64(m.MediaCount)
		u.LikeCount = models.Int64(m.Likes)
		u.CommentCount = models.Int64(m.Comments)
		u.EngagementRate = models.Float64(InstagramEngagementRate(m.Followers, m.Likes, m.Comments, m.PostCount))
		u.Extras["recent_post_count"] = m.PostCount
		return u, nil

	case models.PlatformLinkedin:
		m := raw.Linkedin
		if m == nil {
			break
		}
		u.FollowerCount = models.Int64(m.Connections)
		u.PostCount = models.Int64(m.Posts)
		u.LikeCount = models.Int64(m.Likes)
		u.CommentCount = models.Int64(m.Comments)
		u.ShareCount = models.Int64(m.Shares)
		u.ViewCount = models.Int64(m.Views)
		u.Extras["total_organizations"] = m.TotalOrganizations
		u.Extras["managed_pages"] = m.ManagedPages
		u.Extras["recent_posts"] = m.RecentPosts
		return u, nil

	case models.PlatformTwitter:
		m := raw.Twitter
		if m == nil {
			break
		}
		u.FollowerCount = models.Int64(m.Followers)
		u.FollowingCount = models.Int64(m.Following)
		u.PostCount = models.Int64(m.Tweets)
		u.LikeCount = models.Int64(m.Likes)
		u.CommentCount = models.Int64(m.Replies)
		u.ShareCount = models.Int64(m.Retweets + m.Quotes)
		u.ViewCount = models.Int64(m.Impressions)
		u.Extras["listed_count"] = m.Listed
		u.Extras["recent_tweets"] = m.RecentTweets
		return u, nil

	case models.PlatformTiktok:
		m := raw.Tiktok
		if m == nil {
			break
		}
		u.FollowerCount = models.Int64(m.Followers)
		u.FollowingCount = models.Int64(m.Following)
		u.PostCount = models.Int64(m.Videos)
		u.LikeCount = models.Int64(m.TotalLikes)
		u.CommentCount = models.Int64(m.Comments)
		u.ShareCount = models.Int64(m.Shares)
		u.ViewCount = models.Int64(m.Views)
		u.Extras["verified"] = m.Verified
		u.Extras["recent_videos"] = m.RecentVideos
		u.Extras["recent_likes"] = m.Likes
		return u, nil

	default:
		return nil, fmt.Errorf("%w: %s", models.ErrPlatformNotFound, platform)
	}

	return nil, fmt.Errorf("metrics for %s carry no %s payload", platform, platform)
}

// InstagramEngagementRate is (likes+comments)/(followers*posts)*100, rounded
// to two decimals. Zero followers or posts yield 0.
func InstagramEngagementRate(followers, likes, comments, posts int64) float64 {
	if followers <= 0 || posts <= 0 {
		return 0
	}
	rate := float64(likes+comments) / float64(followers*posts) * 100
	return math.Round(rate*100) / 100
}
