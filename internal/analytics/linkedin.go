package analytics

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/transfer"
)

type linkedinFetcher struct {
	api     apiClient
	baseURL string
}

func (f *linkedinFetcher) headers(accessToken string) http.Header {
	h := bearer(accessToken)
	h.Set("X-Restli-Protocol-Version", "2.0.0")
	return h
}

func (f *linkedinFetcher) userInfo(ctx context.Context, accessToken string) (*transfer.LinkedinUserInfo, error) {
	var info transfer.LinkedinUserInfo
	if err := f.api.getJSON(ctx, f.baseURL+"/v2/userinfo", f.headers(accessToken), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (f *linkedinFetcher) posts(ctx context.Context, accessToken, personID string, count int) (*transfer.LinkedinUgcPosts, error) {
	author := url.QueryEscape("urn:li:person:" + personID)
	endpoint := f.baseURL + "/v2/ugcPosts?q=authors&authors=List(" + author + ")&sortBy=LAST_MODIFIED&count=" + strconv.Itoa(count)

	var resp transfer.LinkedinUgcPosts
	if err := f.api.getJSON(ctx, endpoint, f.headers(accessToken), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (f *linkedinFetcher) FetchProfile(ctx context.Context, accessToken string) (*models.PlatformProfile, error) {
	info, err := f.userInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	username := info.Email
	if i := strings.IndexByte(username, '@'); i > 0 {
		username = username[:i]
	}

	return &models.PlatformProfile{
		ID:             info.Sub,
		Username:       username,
		Name:           info.Name,
		ProfilePicture: info.Picture,
	}, nil
}

func (f *linkedinFetcher) FetchAnalytics(ctx context.Context, accessToken string, account *models.SocialAccount) (*RawMetrics, error) {
	info, err := f.userInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var (
		m        = &LinkedinMetrics{}
		orgs     transfer.LinkedinOrganizationAcls
		network  transfer.LinkedinNetworkSize
		ugcPosts *transfer.LinkedinUgcPosts
	)

	// Each sub-fetch writes only its own variable; results are merged after
	// the wait.
	warnings := runSubFetches(ctx, models.PlatformLinkedin,
		subFetch{
			name: "organizations",
			run: func(ctx context.Context) error {
				endpoint := f.baseURL + "/v2/organizationAcls?q=roleAssignee&state=APPROVED"
				return f.api.getJSON(ctx, endpoint, f.headers(accessToken), &orgs)
			},
		},
		subFetch{
			name: "connections",
			run: func(ctx context.Context) error {
				endpoint := f.baseURL + "/v2/networkSizes/" + url.PathEscape("urn:li:person:"+info.Sub) + "?edgeType=FirstDegreeConnection"
				return f.api.getJSON(ctx, endpoint, f.headers(accessToken), &network)
			},
		},
		subFetch{
			name: "posts",
			run: func(ctx context.Context) error {
				resp, err := f.posts(ctx, accessToken, info.Sub, recentSampleSize)
				if err != nil {
					return err
				}
				ugcPosts = resp
				return nil
			},
		},
	)

	m.TotalOrganizations = int64(len(orgs.Elements))
	for _, el := range orgs.Elements {
		if el.Role == "ADMINISTRATOR" {
			m.ManagedPages++
		}
	}
	m.Connections = network.FirstDegreeSize
	if ugcPosts != nil {
		m.RecentPosts = int64(len(ugcPosts.Elements))
		m.Posts = ugcPosts.Paging.Total
		if m.Posts < m.RecentPosts {
			m.Posts = m.RecentPosts
		}
		for _, p := range ugcPosts.Elements {
			m.Likes += p.TotalSocialActivityCounts.NumLikes
			m.Comments += p.TotalSocialActivityCounts.NumComments
			m.Shares += p.TotalSocialActivityCounts.NumShares
			m.Views += p.TotalSocialActivityCounts.NumViews
		}
	}

	return &RawMetrics{Platform: models.PlatformLinkedin, Linkedin: m, Warnings: warnings}, nil
}

func (f *linkedinFetcher) FetchRecentContent(ctx context.Context, accessToken string, account *models.SocialAccount, limit int) ([]models.ContentItem, error) {
	resp, err := f.posts(ctx, accessToken, account.AccountID, clampLimit(limit, 1, 100))
	if err != nil {
		return nil, err
	}

	items := make([]models.ContentItem, 0, len(resp.Elements))
	for _, p := range resp.Elements {
		item := models.ContentItem{
			ID:           p.ID,
			Title:        p.SpecificContent.ShareContent.ShareCommentary.Text,
			URL:          "https://www.linkedin.com/feed/update/" + p.ID,
			MediaType:    "post",
			LikeCount:    p.TotalSocialActivityCounts.NumLikes,
			CommentCount: p.TotalSocialActivityCounts.NumComments,
			ShareCount:   p.TotalSocialActivityCounts.NumShares,
			ViewCount:    p.TotalSocialActivityCounts.NumViews,
		}
		if p.Created.Time > 0 {
			t := time.UnixMilli(p.Created.Time).UTC()
			item.PublishedAt = &t
		}
		items = append(items, item)
	}
	return items, nil
}
