package catalog

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

func (r *PostgresRepository) List(ctx context.Context) ([]models.CatalogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, category, url FROM website_catalog ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.CatalogEntry
	for rows.Next() {
		var e models.CatalogEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.URL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.CatalogEntry, error) {
	e := &models.CatalogEntry{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, category, url FROM website_catalog WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.Category, &e.URL)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return e, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, e *models.CatalogEntry) error {
	query :=
		`INSERT INTO website_catalog (id, name, category, url)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   category = EXCLUDED.category,
		   url = EXCLUDED.url
		 `

	_, err := r.db.ExecContext(ctx, query, e.ID, e.Name, e.Category, e.URL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM website_catalog WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return res.RowsAffected()
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM website_catalog`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
