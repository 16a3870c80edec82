package analytics

import (
	"testing"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstagramEngagementRate(t *testing.T) {
	raw := &RawMetrics{
		Platform:  models.PlatformInstagram,
		Instagram: &InstagramMetrics{Followers: 1000, Likes: 40, Comments: 10, PostCount: 5, MediaCount: 12},
	}

	u, err := Normalize(models.PlatformInstagram, raw)
	require.NoError(t, err)
	require.NotNil(t, u.EngagementRate)
	assert.InDelta(t, 1.0, *u.EngagementRate, 1e-9)
	assert.Equal(t, int64(1000), *u.FollowerCount)
	assert.Equal(t, int64(12), *u.PostCount)
}

func TestInstagramEngagementRateWithoutFollowers(t *testing.T) {
	assert.Equal(t, 0.0, InstagramEngagementRate(0, 40, 10, 5))
	assert.Equal(t, 0.0, InstagramEngagementRate(1000, 40, 10, 0))
}

func TestNormalizeYoutubeHidesSubscribers(t *testing.T) {
	raw := &RawMetrics{
		Platform: models.PlatformYoutube,
		Youtube:  &YoutubeMetrics{ChannelID: "UC1", SubscriberCount: 0, VideoCount: 3, ViewCount: 900, HiddenSubscriberCount: true},
	}

	u, err := Normalize(models.PlatformYoutube, raw)
	require.NoError(t, err)
	assert.Nil(t, u.FollowerCount)
	assert.Nil(t, u.EngagementRate)
	assert.Equal(t, int64(3), *u.PostCount)
	assert.Equal(t, int64(900), *u.ViewCount)
	assert.Equal(t, "UC1", u.Extras["channel_id"])
}

func TestNormalizeLinkedinCarriesOrganizationExtras(t *testing.T) {
	raw := &RawMetrics{
		Platform: models.PlatformLinkedin,
		Linkedin: &LinkedinMetrics{Connections: 250, Posts: 7, TotalOrganizations: 2, ManagedPages: 1, Likes: 30, Shares: 4},
		Warnings: []string{"organizations unavailable"},
	}

	u, err := Normalize(models.PlatformLinkedin, raw)
	require.NoError(t, err)
	assert.Equal(t, int64(250), *u.FollowerCount)
	assert.Equal(t, int64(7), *u.PostCount)
	assert.Equal(t, int64(4), *u.ShareCount)
	assert.Equal(t, int64(2), u.Extras["total_organizations"])
	assert.Equal(t, []string{"organizations unavailable"}, u.Warnings)
}

func TestNormalizeTwitterAndTiktok(t *testing.T) {
	tw, err := Normalize(models.PlatformTwitter, &RawMetrics{
		Platform: models.PlatformTwitter,
		Twitter:  &TwitterMetrics{Followers: 10, Following: 20, Tweets: 30, Retweets: 2, Quotes: 1, Replies: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), *tw.FollowerCount)
	assert.Equal(t, int64(20), *tw.FollowingCount)
	assert.Equal(t, int64(3), *tw.ShareCount)
	assert.Equal(t, int64(5), *tw.CommentCount)

	tt, err := Normalize(models.PlatformTiktok, &RawMetrics{
		Platform: models.PlatformTiktok,
		Tiktok:   &TiktokMetrics{Followers: 100, Videos: 4, TotalLikes: 999, Verified: true},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), *tt.FollowerCount)
	assert.Equal(t, int64(4), *tt.PostCount)
	assert.Equal(t, int64(999), *tt.LikeCount)
	assert.Equal(t, true, tt.Extras["verified"])
}

func TestNormalizeRejectsMismatchedPayload(t *testing.T) {
	_, err := Normalize(models.PlatformTwitter, &RawMetrics{Platform: models.PlatformTiktok, Tiktok: &TiktokMetrics{}})
	assert.Error(t, err)

	_, err = Normalize(models.PlatformTwitter, &RawMetrics{Platform: models.PlatformTwitter})
	assert.Error(t, err)

	_, err = Normalize(models.Platform("myspace"), &RawMetrics{Platform: models.Platform("myspace")})
	assert.ErrorIs(t, err, models.ErrPlatformNotFound)
}
