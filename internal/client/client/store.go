package client

import (
	"context"

	"github.com/dmitrijs2005/atlist/internal/rpc"
)

// RecordStore is the generic read/upsert/delete surface of the backend.
type RecordStore interface {
	Read(ctx context.Context, collection string, filter rpc.Filter, order string) ([]rpc.Row, error)
	Upsert(ctx context.Context, collection string, rows []rpc.Row) (int64, error)
	Delete(ctx context.Context, collection string, filter rpc.Filter) (int64, error)
	Ping(ctx context.Context) error
}
