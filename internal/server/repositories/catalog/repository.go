package catalog

import (
	"context"

	"github.com/dmitrijs2005/atlist/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.CatalogEntry, error)
	Get(ctx context.Context, id string) (*models.CatalogEntry, error)
	Upsert(ctx context.Context, e *models.CatalogEntry) error
	Delete(ctx context.Context, id string) (int64, error)
	Count(ctx context.Context) (int64, error)
}
