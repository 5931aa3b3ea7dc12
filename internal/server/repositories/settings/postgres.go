package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/dbx"
	"github.com/dmitrijs2005/atlist/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Settings, error) {
	query :=
		`SELECT user_id, theme, notifications_enabled, preload_enabled, two_factor_enabled, updated_at
		 FROM user_settings
		 WHERE user_id = $1
		 `

	s := &models.Settings{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.UserID, &s.Theme,
		&s.NotificationsEnabled, &s.PreloadEnabled, &s.TwoFactorEnabled, &s.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, s *models.Settings) error {
	query :=
		`INSERT INTO user_settings (user_id, theme, notifications_enabled, preload_enabled, two_factor_enabled)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   theme = COALESCE(EXCLUDED.theme, user_settings.theme),
		   notifications_enabled = COALESCE(EXCLUDED.notifications_enabled, user_settings.notifications_enabled),
		   preload_enabled = COALESCE(EXCLUDED.preload_enabled, user_settings.preload_enabled),
		   two_factor_enabled = COALESCE(EXCLUDED.two_factor_enabled, user_settings.two_factor_enabled),
		   updated_at = now()
		 `

	_, err := r.db.ExecContext(ctx, query, s.UserID, s.Theme,
		s.NotificationsEnabled, s.PreloadEnabled, s.TwoFactorEnabled)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_settings WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return res.RowsAffected()
}
