package localstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/atlist/internal/common"
)

// LoadJSON decodes the value under key into dst. It reports false when the
// key is absent. Undecodable bytes yield common.ErrMalformedRecord.
func LoadJSON(ctx context.Context, repo Repository, key string, dst any) (bool, error) {
	raw, err := repo.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", common.ErrMalformedRecord, key, err)
	}
	return true, nil
}

func SaveJSON(ctx context.Context, repo Repository, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return repo.Set(ctx, key, raw)
}
