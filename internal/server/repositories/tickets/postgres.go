package tickets

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

func (r *PostgresRepository) Create(ctx context.Context, t *models.Ticket) (*models.Ticket, error) {
	query :=
		`INSERT INTO support_tickets (id, from_user_id, category, subject, body, email)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING status, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.FromUserID, t.Category, t.Subject, t.Body, t.Email).Scan(&t.Status, &t.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Ticket, error) {
	query :=
		`SELECT id, from_user_id, category, subject, body, email, status, created_at
		 FROM support_tickets
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.ID, &t.FromUserID, &t.Category, &t.Subject, &t.Body, &t.Email, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM support_tickets WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return res.RowsAffected()
}
