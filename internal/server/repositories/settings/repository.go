package settings

import (
	"context"

	"github.com/dmitrijs2005/atlist/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*models.Settings, error)
	Upsert(ctx context.Context, s *models.Settings) error
	Delete(ctx context.Context, userID string) (int64, error)
}
