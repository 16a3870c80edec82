package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/socialsync-api/internal/models"
)

type AnalyticsRepository interface {
	Upsert(ctx context.Context, s *models.AnalyticsSnapshot) error
	GetByAccountID(ctx context.Context, accountID int64) (*models.AnalyticsSnapshot, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.AnalyticsSnapshot, error)
}

type analyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// Upsert overwrites the previous snapshot of the account.
func (r *analyticsRepository) Upsert(ctx context.Context, s *models.AnalyticsSnapshot) error {
	query := `
		INSERT INTO analytics_snapshots(account_id, platform, unified, raw, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id) DO UPDATE SET
			platform = EXCLUDED.platform,
			unified = EXCLUDED.unified,
			raw = EXCLUDED.raw,
			last_updated = EXCLUDED.last_updated
	`
	_, err := r.db.ExecContext(ctx, query, s.AccountID, s.Platform, jsonParam(s.Unified), jsonParam(s.Raw), s.LastUpdated)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// GetByAccountID returns nil without error when no snapshot exists yet.
func (r *analyticsRepository) GetByAccountID(ctx context.Context, accountID int64) (*models.AnalyticsSnapshot, error) {
	query := `SELECT account_id, platform, unified, raw, last_updated FROM analytics_snapshots WHERE account_id = $1`

	var s models.AnalyticsSnapshot
	var unified, raw []byte
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&s.AccountID, &s.Platform, &unified, &raw, &s.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	s.Unified, s.Raw = unified, raw
	return &s, nil
}

func (r *analyticsRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.AnalyticsSnapshot, error) {
	query := `
		SELECT s.account_id, s.platform, s.unified, s.raw, s.last_updated
		FROM analytics_snapshots s
		JOIN social_accounts a ON a.id = s.account_id
		WHERE a.user_id = $1
		ORDER BY s.account_id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var snapshots []*models.AnalyticsSnapshot
	for rows.Next() {
		var s models.AnalyticsSnapshot
		var unified, raw []byte
		if err := rows.Scan(&s.AccountID, &s.Platform, &unified, &raw, &s.LastUpdated); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		s.Unified, s.Raw = unified, raw
		snapshots = append(snapshots, &s)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return snapshots, nil
}
