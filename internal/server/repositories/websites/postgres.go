package websites

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/atlist/internal/dbx"
	"github.com/dmitrijs2005/atlist/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.UserWebsite, error) {
	query :=
		`SELECT user_id, website_id, position, custom_color
		 FROM user_websites
		 WHERE user_id = $1
		 ORDER BY position
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.UserWebsite
	for rows.Next() {
		var w models.UserWebsite
		if err := rows.Scan(&w.UserID, &w.WebsiteID, &w.Position, &w.CustomColor); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, w *models.UserWebsite) error {
	query :=
		`INSERT INTO user_websites (user_id, website_id, position, custom_color)
		 VALUES ($1, $2, $3, $4)
		 `

	_, err := r.db.ExecContext(ctx, query, w.UserID, w.WebsiteID, w.Position, w.CustomColor)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_websites WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return res.RowsAffected()
}
