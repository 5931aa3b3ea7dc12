package profiles

import (
	"context"

	"github.com/dmitrijs2005/atlist/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	// Upsert writes the owner-editable columns. Null columns keep their
	// stored value.
	Upsert(ctx context.Context, p *models.Profile) error
	UpdatePrivileges(ctx context.Context, id string, role string, membershipActive bool) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}
