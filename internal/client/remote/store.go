package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/atlist/internal/client/client"
	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/logging"
	"github.com/dmitrijs2005/atlist/internal/rpc"
)

type Store struct {
	rs     client.RecordStore
	logger logging.Logger
}

func NewStore(rs client.RecordStore, l logging.Logger) *Store {
	return &Store{rs: rs, logger: l.With("module", "remote_store")}
}

func (s *Store) readOne(ctx context.Context, collection string, filter rpc.Filter) (rpc.Row, error) {
	rows, err := s.rs.Read(ctx, collection, filter, "")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.ErrorNotFound
	}
	return rows[0], nil
}

func (s *Store) LoadSettings(ctx context.Context, id models.Identity) (models.SettingsPatch, error) {
	row, err := s.readOne(ctx, rpc.CollectionSettings, rpc.Filter{"user_id": string(id)})
	if err != nil {
		return models.SettingsPatch{}, err
	}
	return decodeSettings(row)
}

func (s *Store) SaveSettings(ctx context.Context, id models.Identity, v models.Settings) error {
	_, err := s.rs.Upsert(ctx, rpc.CollectionSettings, []rpc.Row{encodeSettings(id, v)})
	return err
}

func (s *Store) DeleteSettings(ctx context.Context, id models.Identity) error {
	_, err := s.rs.Delete(ctx, rpc.CollectionSettings, rpc.Filter{"user_id": string(id)})
	return err
}

func (s *Store) LoadProfile(ctx context.Context, id models.Identity) (models.ProfilePatch, error) {
	row, err := s.readOne(ctx, rpc.CollectionProfiles, rpc.Filter{"id": string(id)})
	if err != nil {
		return models.ProfilePatch{}, err
	}
	return decodeProfile(row)
}

// SaveProfile writes the editable profile fields.
func (s *Store) SaveProfile(ctx context.Context, id models.Identity, v models.Profile) error {
	_, err := s.rs.Upsert(ctx, rpc.CollectionProfiles, []rpc.Row{encodeProfile(id, v)})
	return err
}

// DeleteProfile removes the profile row. The store cascades the deletion to
// the identity's settings and selection.
func (s *Store) DeleteProfile(ctx context.Context, id models.Identity) error {
	_, err := s.rs.Delete(ctx, rpc.CollectionProfiles, rpc.Filter{"id": string(id)})
	return err
}

// LoadSelection returns the stored sites ordered by position. Focus is not
// stored remotely, so the patch never sets it.
func (s *Store) LoadSelection(ctx context.Context, id models.Identity) (models.SelectionPatch, error) {
	rows, err := s.rs.Read(ctx, rpc.CollectionWebsites, rpc.Filter{"user_id": string(id)}, "position")
	if err != nil {
		return models.SelectionPatch{}, err
	}
	if len(rows) == 0 {
		return models.SelectionPatch{}, common.ErrorNotFound
	}
	return decodeSelection(rows)
}

// SaveSelection replaces the identity's stored sites with v.Sites.
func (s *Store) SaveSelection(ctx context.Context, id models.Identity, v models.Selection) error {
	_, err := s.rs.Upsert(ctx, rpc.CollectionWebsites, encodeSelection(id, v))
	return err
}

func (s *Store) DeleteSelection(ctx context.Context, id models.Identity) error {
	_, err := s.rs.Delete(ctx, rpc.CollectionWebsites, rpc.Filter{"user_id": string(id)})
	return err
}

// ListCatalog returns every decodable catalog row, invalid ones included.
// Rows that cannot be decoded are skipped.
func (s *Store) ListCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	rows, err := s.rs.Read(ctx, rpc.CollectionCatalog, nil, "name")
	if err != nil {
		return nil, err
	}

	out := make([]models.CatalogEntry, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, r := range rows {
		e, err := decodeCatalogEntry(r)
		if err != nil {
			s.logger.Warn(ctx, "skipping catalog row", "row", i, "err", err)
			continue
		}
		if _, dup := seen[e.ID]; dup {
			s.logger.Warn(ctx, "duplicate catalog id", "id", e.ID)
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

func validateCatalogEntry(e models.CatalogEntry) error {
	var missing []string
	if strings.TrimSpace(e.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(e.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(e.URL) == "" {
		missing = append(missing, "url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", common.ErrorValidation, strings.Join(missing, ", "))
	}
	return nil
}

// UpsertCatalogEntry creates or edits one catalog entry. Admin only; the
// store rejects everyone else.
func (s *Store) UpsertCatalogEntry(ctx context.Context, e models.CatalogEntry) error {
	if err := validateCatalogEntry(e); err != nil {
		return err
	}
	_, err := s.rs.Upsert(ctx, rpc.CollectionCatalog, []rpc.Row{encodeCatalogEntry(e)})
	return err
}

func (s *Store) DeleteCatalogEntry(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id required", common.ErrorValidation)
	}
	_, err := s.rs.Delete(ctx, rpc.CollectionCatalog, rpc.Filter{"id": id})
	return err
}

// ImportCatalog upserts entries in one call. Entries failing validation
// abort the import before anything is sent.
func (s *Store) ImportCatalog(ctx context.Context, entries []models.CatalogEntry) (int64, error) {
	rows := make([]rpc.Row, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if err := validateCatalogEntry(e); err != nil {
			return 0, fmt.Errorf("entry %q: %w", e.ID, err)
		}
		if _, dup := seen[e.ID]; dup {
			return 0, fmt.Errorf("%w: duplicate id %q", common.ErrorValidation, e.ID)
		}
		seen[e.ID] = struct{}{}
		rows = append(rows, encodeCatalogEntry(e))
	}
	return s.rs.Upsert(ctx, rpc.CollectionCatalog, rows)
}

// CreateTicket validates t and stores it for the identity.
func (s *Store) CreateTicket(ctx context.Context, id models.Identity, t models.Ticket) error {
	if err := t.Validate(); err != nil {
		return err
	}
	row := rpc.Row{
		"from_user_id": string(id),
		"category":     string(t.Category),
		"subject":      t.Subject,
		"body":         t.Body,
		"email":        t.Email,
	}
	_, err := s.rs.Upsert(ctx, rpc.CollectionTickets, []rpc.Row{row})
	return err
}

// ListTickets is the admin inbox. An empty category lists everything.
func (s *Store) ListTickets(ctx context.Context, category models.TicketCategory) ([]models.Ticket, error) {
	var filter rpc.Filter
	if category != "" {
		filter = rpc.Filter{"category": string(category)}
	}
	rows, err := s.rs.Read(ctx, rpc.CollectionTickets, filter, "created_at")
	if err != nil {
		return nil, err
	}
	out := make([]models.Ticket, 0, len(rows))
	for i, r := range rows {
		t, err := decodeTicket(r)
		if err != nil {
			s.logger.Warn(ctx, "skipping ticket row", "row", i, "err", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
