package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/redis/go-redis/v9"
)

// OAuthStateRepository keeps one pending OAuth transaction per (user, platform).
type OAuthStateRepository interface {
	Save(ctx context.Context, userID int64, platform models.Platform, tx *models.OAuthTransaction, ttl time.Duration) error
	// Consume returns and deletes the pending transaction, or nil if there is none.
	Consume(ctx context.Context, userID int64, platform models.Platform) (*models.OAuthTransaction, error)
}

type oauthStateRepository struct {
	rdb *redis.Client
}

func NewOAuthStateRepository(rdb *redis.Client) OAuthStateRepository {
	return &oauthStateRepository{rdb: rdb}
}

func stateKey(userID int64, platform models.Platform) string {
	return fmt.Sprintf("oauth_state:%d:%s", userID, platform)
}

// Save replaces any transaction already pending for the pair.
func (r *oauthStateRepository) Save(ctx context.Context, userID int64, platform models.Platform, tx *models.OAuthTransaction, ttl time.Duration) error {
	payload, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	if err := r.rdb.Set(ctx, stateKey(userID, platform), payload, ttl).Err(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *oauthStateRepository) Consume(ctx context.Context, userID int64, platform models.Platform) (*models.OAuthTransaction, error) {
	payload, err := r.rdb.GetDel(ctx, stateKey(userID, platform)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	var tx models.OAuthTransaction
	if err := json.Unmarshal(payload, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}
