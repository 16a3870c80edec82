package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/maheshrc27/socialsync-api/internal/models"
)

const socialAccountColumns = `id, user_id, platform, account_id, account_name, account_username,
	profile_picture_url, access_token, refresh_token, token_expires_at, account_status,
	permissions, created_at, updated_at`

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	GetByUserPlatform(ctx context.Context, userID int64, platform models.Platform) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error)
	ListConnected(ctx context.Context) ([]*models.SocialAccount, error)
	SetToken(ctx context.Context, id int64, oldAccessToken string, sa *models.SocialAccount) error
	MarkStatus(ctx context.Context, id int64, status models.AccountStatus) error
	Remove(ctx context.Context, id, userID int64) error
}

type socialAccountRepository struct {
	db    *sql.DB
	clock clockwork.Clock
}

func NewSocialAccountRepository(db *sql.DB, clock clockwork.Clock) SocialAccountRepository {
	return &socialAccountRepository{db: db, clock: clock}
}

// statusFor derives the status written with fresh token material.
func statusFor(expiresAt *time.Time, now time.Time) models.AccountStatus {
	if expiresAt != nil && !now.Before(*expiresAt) {
		return models.AccountStatusExpired
	}
	return models.AccountStatusConnected
}

// Upsert inserts the account or updates the existing row for the same
// (user, platform, account_id). It reports whether a row was created.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (bool, error) {
	now := r.clock.Now()
	sa.AccountStatus = statusFor(sa.TokenExpiresAt, now)
	sa.StoredStatus = sa.AccountStatus

	query := `
		INSERT INTO social_accounts(
			user_id,
			platform,
			account_id,
			account_name,
			account_username,
			profile_picture_url,
			access_token,
			refresh_token,
			token_expires_at,
			account_status,
			permissions,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (user_id, platform, account_id) DO UPDATE SET
			account_name = EXCLUDED.account_name,
			account_username = EXCLUDED.account_username,
			profile_picture_url = EXCLUDED.profile_picture_url,
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), social_accounts.refresh_token),
			token_expires_at = EXCLUDED.token_expires_at,
			account_status = EXCLUDED.account_status,
			permissions = EXCLUDED.permissions,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		sa.UserID,
		sa.Platform,
		sa.AccountID,
		sa.AccountName,
		sa.AccountUsername,
		sa.ProfilePicture,
		sa.AccessToken,
		sa.RefreshToken,
		sa.TokenExpiresAt,
		sa.AccountStatus,
		jsonParam(sa.Permissions),
		now,
	).Scan(&sa.ID, &sa.CreatedAt, &sa.UpdatedAt, &inserted)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return inserted, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *socialAccountRepository) GetByUserPlatform(ctx context.Context, userID int64, platform models.Platform) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts
		WHERE user_id = $1 AND platform = $2
		ORDER BY updated_at DESC
		LIMIT 1`
	return r.getOne(ctx, query, userID, platform)
}

func (r *socialAccountRepository) getOne(ctx context.Context, query string, args ...any) (*models.SocialAccount, error) {
	sa, err := r.scan(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts
		WHERE user_id = $1
		ORDER BY created_at`
	return r.list(ctx, query, userID)
}

// ListExpiring returns auto-refreshable accounts whose token expires before the given time.
func (r *socialAccountRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts
		WHERE account_status = 'connected'
		AND refresh_token <> ''
		AND token_expires_at IS NOT NULL
		AND token_expires_at < $1`
	return r.list(ctx, query, before)
}

func (r *socialAccountRepository) ListConnected(ctx context.Context) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE account_status = 'connected'`
	return r.list(ctx, query)
}

func (r *socialAccountRepository) list(ctx context.Context, query string, args ...any) ([]*models.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := r.scan(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *socialAccountRepository) scan(row rowScanner) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	var expiresAt sql.NullTime
	var permissions []byte

	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountName,
		&sa.AccountUsername, &sa.ProfilePicture, &sa.AccessToken, &sa.RefreshToken,
		&expiresAt, &sa.AccountStatus, &permissions, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		sa.TokenExpiresAt = &t
	}
	if len(permissions) > 0 {
		sa.Permissions = permissions
	}

	sa.ApplyExpiry(r.clock.Now())
	return &sa, nil
}

// SetToken replaces the token material only if the stored access token still
// equals oldAccessToken. A concurrent writer that got there first wins and
// this call returns ErrStaleToken.
func (r *socialAccountRepository) SetToken(ctx context.Context, id int64, oldAccessToken string, sa *models.SocialAccount) error {
	now := r.clock.Now()
	sa.AccountStatus = statusFor(sa.TokenExpiresAt, now)

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	updateTokenQuery := `
		UPDATE social_accounts
		SET
			access_token = $3,
			refresh_token = COALESCE(NULLIF($4, ''), refresh_token),
			token_expires_at = $5,
			account_status = $6,
			updated_at = $7
		WHERE id = $1 AND access_token = $2
	`
	result, err := tx.ExecContext(ctx, updateTokenQuery, id, oldAccessToken, sa.AccessToken, sa.RefreshToken, sa.TokenExpiresAt, sa.AccountStatus, now)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info("token update lost race", "account_id", id)
		return models.ErrStaleToken
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) MarkStatus(ctx context.Context, id int64, status models.AccountStatus) error {
	query := `UPDATE social_accounts SET account_status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, r.clock.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

// Remove deletes the account only when it belongs to userID.
func (r *socialAccountRepository) Remove(ctx context.Context, id, userID int64) error {
	query := `DELETE FROM social_accounts WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

// jsonParam passes JSON as text; lib/pq would send a []byte as bytea.
func jsonParam(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
