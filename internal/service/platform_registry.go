package service

import (
	"context"
	"fmt"
	"log/slog"

	config "github.com/maheshrc27/socialsync-api/configs"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/repository"
)

type PlatformRegistry interface {
	Get(ctx context.Context, id string) (*models.PlatformDescriptor, error)
	ListActive(ctx context.Context) ([]*models.PlatformDescriptor, error)
	Seed(ctx context.Context) error
}

type platformRegistry struct {
	cfg *config.Config
	pr  repository.PlatformRepository
}

func NewPlatformRegistry(cfg *config.Config, pr repository.PlatformRepository) PlatformRegistry {
	return &platformRegistry{
		cfg: cfg,
		pr:  pr,
	}
}

// Get resolves an active descriptor. Unknown, missing and inactive platforms
// all report ErrPlatformNotFound.
func (s *platformRegistry) Get(ctx context.Context, id string) (*models.PlatformDescriptor, error) {
	platform, ok := models.ParsePlatform(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrPlatformNotFound, id)
	}

	d, err := s.pr.Get(ctx, platform)
	if err != nil {
		return nil, err
	}
	if !d.IsActive {
		return nil, fmt.Errorf("%w: %s is inactive", models.ErrPlatformNotFound, platform)
	}
	return d, nil
}

func (s *platformRegistry) ListActive(ctx context.Context) ([]*models.PlatformDescriptor, error) {
	return s.pr.ListActive(ctx)
}

// Seed writes the built-in descriptors, picking up credentials from config.
func (s *platformRegistry) Seed(ctx context.Context) error {
	for _, d := range DefaultDescriptors(s.cfg) {
		if err := s.pr.Seed(ctx, d); err != nil {
			return fmt.Errorf("seed %s: %w", d.ID, err)
		}
		if !d.Configured() {
			slog.Warn("platform has no OAuth credentials", "platform", d.ID)
		}
	}
	return nil
}

func DefaultDescriptors(cfg *config.Config) []*models.PlatformDescriptor {
	return []*models.PlatformDescriptor{
		{
			ID:           models.PlatformInstagram,
			DisplayName:  "Instagram",
			IconClass:    "fab fa-instagram",
			ColorClass:   "text-pink-500",
			AuthURL:      "https://www.instagram.com/oauth/authorize",
			TokenURL:     "https://api.instagram.com/oauth/access_token",
			Scope:        "instagram_business_basic,instagram_business_manage_insights",
			ClientID:     cfg.Instagram.ClientID,
			ClientSecret: cfg.Instagram.ClientSecret,
			IsActive:     true,
		},
		{
			ID:           models.PlatformYoutube,
			DisplayName:  "YouTube",
			IconClass:    "fab fa-youtube",
			ColorClass:   "text-red-600",
			AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			Scope:        "https://www.googleapis.com/auth/youtube.readonly https://www.googleapis.com/auth/youtube.upload",
			ClientID:     cfg.Youtube.ClientID,
			ClientSecret: cfg.Youtube.ClientSecret,
			IsActive:     true,
		},
		{
			ID:           models.PlatformLinkedin,
			DisplayName:  "LinkedIn",
			IconClass:    "fab fa-linkedin",
			ColorClass:   "text-blue-700",
			AuthURL:      "https://www.linkedin.com/oauth/v2/authorization",
			TokenURL:     "https://www.linkedin.com/oauth/v2/accessToken",
			Scope:        "openid profile email w_member_social r_organization_social",
			ClientID:     cfg.Linkedin.ClientID,
			ClientSecret: cfg.Linkedin.ClientSecret,
			IsActive:     true,
		},
		{
			ID:           models.PlatformTwitter,
			DisplayName:  "Twitter / X",
			IconClass:    "fab fa-x-twitter",
			ColorClass:   "text-gray-900",
			AuthURL:      "https://twitter.com/i/oauth2/authorize",
			TokenURL:     "https://api.twitter.com/2/oauth2/token",
			Scope:        "tweet.read tweet.write users.read offline.access",
			ClientID:     cfg.Twitter.ClientID,
			ClientSecret: cfg.Twitter.ClientSecret,
			IsActive:     true,
		},
		{
			ID:           models.PlatformTiktok,
			DisplayName:  "TikTok",
			IconClass:    "fab fa-tiktok",
			ColorClass:   "text-black",
			AuthURL:      "https://www.tiktok.com/v2/auth/authorize/",
			TokenURL:     "https://open.tiktokapis.com/v2/oauth/token/",
			Scope:        "user.info.basic,user.info.stats,video.list",
			ClientID:     cfg.Tiktok.ClientID,
			ClientSecret: cfg.Tiktok.ClientSecret,
			IsActive:     true,
		},
	}
}
