package analytics

import "github.com/maheshrc27/socialsync-api/internal/models"

// RawMetrics holds exactly one platform variant, selected by Platform.
type RawMetrics struct {
	Platform  models.Platform   `json:"platform"`
	Youtube   *YoutubeMetrics   `json:"youtube,omitempty"`
	Instagram *InstagramMetrics `json:"instagram,omitempty"`
	Linkedin  *LinkedinMetrics  `json:"linkedin,omitempty"`
	Twitter   *TwitterMetrics   `json:"twitter,omitempty"`
	Tiktok    *TiktokMetrics    `json:"tiktok,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

type YoutubeMetrics struct {
	ChannelID             string `json:"channel_id"`
	ChannelTitle          string `json:"channel_title"`
	SubscriberCount       int64  `json:"subscriber_count"`
	VideoCount            int64  `json:"video_count"`
	ViewCount             int64  `json:"view_count"`
	HiddenSubscriberCount bool   `json:"hidden_subscriber_count"`
}

// InstagramMetrics carries profile counters plus likes and comments summed
// over the PostCount most recent media.
type InstagramMetrics struct {
	Followers  int64 `json:"followers"`
	Following  int64 `json:"following"`
	MediaCount int64 `json:"media_count"`
	Likes      int64 `json:"likes"`
	Comments   int64 `json:"comments"`
	PostCount  int64 `json:"post_count"`
}

type LinkedinMetrics struct {
	Connections        int64 `json:"connections"`
	Posts              int64 `json:"posts"`
	TotalOrganizations int64 `json:"total_organizations"`
	ManagedPages       int64 `json:"managed_pages"`
	RecentPosts        int64 `json:"recent_posts"`
	Likes              int64 `json:"likes"`
	Comments           int64 `json:"comments"`
	Shares             int64 `json:"shares"`
	Views              int64 `json:"views"`
}

type TwitterMetrics struct {
	Followers    int64 `json:"followers"`
	Following    int64 `json:"following"`
	Tweets       int64 `json:"tweets"`
	Listed       int64 `json:"listed"`
	RecentTweets int64 `json:"recent_tweets"`
	Likes        int64 `json:"likes"`
	Retweets     int64 `json:"retweets"`
	Replies      int64 `json:"replies"`
	Quotes       int64 `json:"quotes"`
	Impressions  int64 `json:"impressions"`
}

type TiktokMetrics struct {
	Followers    int64 `json:"followers"`
	Following    int64 `json:"following"`
	TotalLikes   int64 `json:"total_likes"`
	Videos       int64 `json:"videos"`
	Verified     bool  `json:"verified"`
	RecentVideos int64 `json:"recent_videos"`
	Views        int64 `json:"views"`
	Likes        int64 `json:"likes"`
	Comments     int64 `json:"comments"`
	Shares       int64 `json:"shares"`
}
