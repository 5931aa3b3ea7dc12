package profiles

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

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	query :=
		`SELECT id, full_name, username, email, avatar_text, avatar_color, role, membership_active, updated_at
		 FROM profiles
		 WHERE id = $1
		 `

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.FullName, &p.Username, &p.Email,
		&p.AvatarText, &p.AvatarColor, &p.Role, &p.MembershipActive, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, p *models.Profile) error {
	query :=
		`INSERT INTO profiles (id, full_name, username, email, avatar_text, avatar_color)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   full_name = COALESCE(EXCLUDED.full_name, profiles.full_name),
		   username = COALESCE(EXCLUDED.username, profiles.username),
		   email = COALESCE(EXCLUDED.email, profiles.email),
		   avatar_text = COALESCE(EXCLUDED.avatar_text, profiles.avatar_text),
		   avatar_color = COALESCE(EXCLUDED.avatar_color, profiles.avatar_color),
		   updated_at = now()
		 `

	_, err := r.db.ExecContext(ctx, query, p.ID, p.FullName, p.Username, p.Email, p.AvatarText, p.AvatarColor)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) UpdatePrivileges(ctx context.Context, id string, role string, membershipActive bool) (int64, error) {
	query :=
		`UPDATE profiles SET role = $2, membership_active = $3, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, role, membershipActive)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return res.RowsAffected()
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return res.RowsAffected()
}
