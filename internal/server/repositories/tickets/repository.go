package tickets

import (
	"context"

	"github.com/dmitrijs2005/atlist/internal/server/models"
)

type Repository interface {
	// Create stores t and fills in the server-side columns.
	Create(ctx context.Context, t *models.Ticket) (*models.Ticket, error)
	List(ctx context.Context) ([]models.Ticket, error)
	Delete(ctx context.Context, id string) (int64, error)
}
