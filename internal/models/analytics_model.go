package models

import (
	"encoding/json"
	"time"
)

// UnifiedAnalytics is the platform-independent reporting record. Fields a
// platform cannot provide stay nil.
type UnifiedAnalytics struct {
	AccountID      int64          `json:"account_id"`
	Platform       Platform       `json:"platform"`
	FollowerCount  *int64         `json:"follower_count,omitempty"`
	FollowingCount *int64         `json:"following_count,omitempty"`
	PostCount      *int64         `json:"post_count,omitempty"`
	ViewCount      *int64         `json:"view_count,omitempty"`
	LikeCount      *int64         `json:"like_count,omitempty"`
	CommentCount   *int64         `json:"comment_count,omitempty"`
	ShareCount     *int64         `json:"share_count,omitempty"`
	EngagementRate *float64       `json:"engagement_rate,omitempty"`
	Extras         map[string]any `json:"extras,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
	LastUpdated    time.Time      `json:"last_updated"`
}

type AnalyticsSnapshot struct {
	AccountID   int64           `db:"account_id" json:"account_id"`
	Platform    Platform        `db:"platform" json:"platform"`
	Unified     json.RawMessage `db:"unified" json:"unified"`
	Raw         json.RawMessage `db:"raw" json:"raw"`
	LastUpdated time.Time       `db:"last_updated" json:"last_updated"`
}

type ContentItem struct {
	ID           string     `json:"id"`
	Title        string     `json:"title,omitempty"`
	URL          string     `json:"url,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	MediaType    string     `json:"media_type,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	LikeCount    int64      `json:"like_count"`
	CommentCount int64      `json:"comment_count"`
	ShareCount   int64      `json:"share_count"`
	ViewCount    int64      `json:"view_count"`
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
