package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/socialsync-api/internal/models"
)

const platformColumns = `id, display_name, icon_class, color_class, auth_url, token_url, scope,
	client_id, client_secret, is_active, created_at, updated_at`

type PlatformRepository interface {
	Get(ctx context.Context, id models.Platform) (*models.PlatformDescriptor, error)
	ListActive(ctx context.Context) ([]*models.PlatformDescriptor, error)
	Seed(ctx context.Context, d *models.PlatformDescriptor) error
}

type platformRepository struct {
	db *sql.DB
}

func NewPlatformRepository(db *sql.DB) PlatformRepository {
	return &platformRepository{db: db}
}

func (r *platformRepository) Get(ctx context.Context, id models.Platform) (*models.PlatformDescriptor, error) {
	query := `SELECT ` + platformColumns + ` FROM social_platforms WHERE id = $1`

	d, err := scanPlatform(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPlatformNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}
	return d, nil
}

func (r *platformRepository) ListActive(ctx context.Context) ([]*models.PlatformDescriptor, error) {
	query := `SELECT ` + platformColumns + ` FROM social_platforms WHERE is_active = TRUE ORDER BY display_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var platforms []*models.PlatformDescriptor
	for rows.Next() {
		d, err := scanPlatform(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		platforms = append(platforms, d)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return platforms, nil
}

// Seed inserts a missing descriptor. Existing rows keep operator edits; only
// empty credentials are filled in.
func (r *platformRepository) Seed(ctx context.Context, d *models.PlatformDescriptor) error {
	query := `
		INSERT INTO social_platforms(
			id,
			display_name,
			icon_class,
			color_class,
			auth_url,
			token_url,
			scope,
			client_id,
			client_secret,
			is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			client_id = COALESCE(NULLIF(social_platforms.client_id, ''), EXCLUDED.client_id),
			client_secret = COALESCE(NULLIF(social_platforms.client_secret, ''), EXCLUDED.client_secret),
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.DisplayName,
		d.IconClass,
		d.ColorClass,
		d.AuthURL,
		d.TokenURL,
		d.Scope,
		d.ClientID,
		d.ClientSecret,
		d.IsActive,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanPlatform(row rowScanner) (*models.PlatformDescriptor, error) {
	var d models.PlatformDescriptor
	err := row.Scan(&d.ID, &d.DisplayName, &d.IconClass, &d.ColorClass, &d.AuthURL, &d.TokenURL,
		&d.Scope, &d.ClientID, &d.ClientSecret, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
