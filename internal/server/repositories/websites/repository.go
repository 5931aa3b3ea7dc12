package websites

import (
	"context"

	"github.com/dmitrijs2005/atlist/internal/server/models"
)

// Repository stores user selections. Replacing a selection is DeleteAll
// followed by Insert calls; callers run them in one transaction.
type Repository interface {
	List(ctx context.Context, userID string) ([]models.UserWebsite, error)
	Insert(ctx context.Context, w *models.UserWebsite) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
}
