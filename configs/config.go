package config

import (
	"log/slog"
	"os"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

// Enabled reports whether raw payload archiving to R2 is configured.
func (r R2) Enabled() bool {
	return r.AccountID != "" && r.AccessKey != "" && r.SecretKey != "" && r.BucketName != ""
}

type OAuthClient struct {
	ClientID     string
	ClientSecret string
}

type Config struct {
	Instagram                OAuthClient
	Youtube                  OAuthClient
	Linkedin                 OAuthClient
	Twitter                  OAuthClient
	Tiktok                   OAuthClient
	PostgresURI              string
	RedisURI                 string
	FrontendURL              string
	Port                     string
	R2                       R2
	SecretKey                string
	CookieName               string
	TokenEncryptionKey       string
	ProviderTimeout          time.Duration
	OAuthStateTTL            time.Duration
	TokenRefreshInterval     time.Duration
	AnalyticsRefreshInterval time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Instagram: OAuthClient{
			ClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
			ClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
		},
		Youtube: OAuthClient{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		},
		Linkedin: OAuthClient{
			ClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
			ClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		},
		Twitter: OAuthClient{
			ClientID:     getEnv("TWITTER_CLIENT_ID", ""),
			ClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
		},
		Tiktok: OAuthClient{
			ClientID:     getEnv("TIKTOK_CLIENT_KEY", ""),
			ClientSecret: getEnv("TIKTOK_CLIENT_SECRET", ""),
		},
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		Port:        getEnv("PORT", "3000"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		SecretKey:                getEnv("SECRET_KEY", ""),
		CookieName:               getEnv("COOKIE_NAME", "session"),
		TokenEncryptionKey:       getEnv("TOKEN_ENCRYPTION_KEY", ""),
		ProviderTimeout:          getDuration("PROVIDER_TIMEOUT", 10*time.Second),
		OAuthStateTTL:            getDuration("OAUTH_STATE_TTL", 10*time.Minute),
		TokenRefreshInterval:     getDuration("TOKEN_REFRESH_INTERVAL", 10*time.Minute),
		AnalyticsRefreshInterval: getDuration("ANALYTICS_REFRESH_INTERVAL", 6*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}
