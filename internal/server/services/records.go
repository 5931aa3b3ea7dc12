// Package services contains the record store's business logic. RecordService
// enforces who may read and write which rows; the transport layer only
// authenticates the caller.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/dbx"
	"github.com/dmitrijs2005/atlist/internal/logging"
	"github.com/dmitrijs2005/atlist/internal/rpc"
	"github.com/dmitrijs2005/atlist/internal/server/config"
	"github.com/dmitrijs2005/atlist/internal/server/models"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RecordService serves Read, Upsert and Delete for every collection.
//
// Identity-scoped collections are filtered and stamped with the caller's
// identity; a filter or row naming someone else is ErrorForbidden. The
// catalog is readable by everyone and writable by admins. Support tickets
// are insert-only for users and readable by admins.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tickets     *ticketLimiter
	logger      logging.Logger
	newID       func() string
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *RecordService {
	return &RecordService{
		db:          db,
		repomanager: m,
		tickets:     newTicketLimiter(cfg.TicketRateLimit),
		logger:      l.With("module", "records"),
		newID:       func() string { return uuid.NewString() },
	}
}

func (s *RecordService) isAdmin(ctx context.Context, caller string) (bool, error) {
	p, err := s.repomanager.Profiles(s.db).Get(ctx, caller)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return p.IsAdmin(), nil
}

func (s *RecordService) requireAdmin(ctx context.Context, caller string) error {
	admin, err := s.isAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !admin {
		return fmt.Errorf("%w: admin role required", common.ErrorForbidden)
	}
	return nil
}

func checkCollection(name string) error {
	if !rpc.KnownCollection(name) {
		return fmt.Errorf("%w: unknown collection %q", common.ErrorValidation, name)
	}
	return nil
}

// scope removes the identity column from f after checking it names caller.
// The returned filter holds the remaining conditions.
func scope(collection string, f rpc.Filter, caller string) (rpc.Filter, error) {
	column, ok := rpc.IdentityScoped(collection)
	rest := make(rpc.Filter, len(f))
	for k, v := range f {
		if ok && k == column {
			if v != caller {
				return nil, fmt.Errorf("%w: %s does not match caller", common.ErrorForbidden, column)
			}
			continue
		}
		rest[k] = v
	}
	return rest, nil
}

func (s *RecordService) Read(ctx context.Context, caller string, req rpc.ReadRequest) ([]rpc.Row, error) {
	if err := checkCollection(req.Collection); err != nil {
		return nil, err
	}
	if err := checkColumns(req.Collection, req.Filter); err != nil {
		return nil, err
	}
	if req.Order != "" && !knownColumn(req.Collection, req.Order) {
		return nil, fmt.Errorf("%w: cannot order by %q", common.ErrorValidation, req.Order)
	}

	var (
		rows []rpc.Row
		rest rpc.Filter
		err  error
	)

	switch req.Collection {
	case rpc.CollectionTickets:
		// Admins read every reporter's tickets; the reporter filter applies as given.
		if err = s.requireAdmin(ctx, caller); err != nil {
			return nil, err
		}
		rest = req.Filter
		rows, err = s.readTickets(ctx)
	case rpc.CollectionCatalog:
		rest = req.Filter
		rows, err = s.readCatalog(ctx)
	default:
		if rest, err = scope(req.Collection, req.Filter, caller); err != nil {
			return nil, err
		}
		rows, err = s.readOwn(ctx, req.Collection, caller)
	}
	if err != nil {
		return nil, err
	}

	out := rows[:0]
	for _, r := range rows {
		if matches(r, rest) {
			out = append(out, r)
		}
	}
	if req.Order != "" {
		sortRows(out, req.Order)
	}
	return out, nil
}

func (s *RecordService) readOwn(ctx context.Context, collection, caller string) ([]rpc.Row, error) {
	switch collection {
	case rpc.CollectionProfiles:
		p, err := s.repomanager.Profiles(s.db).Get(ctx, caller)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read profile: %w", err)
		}
		return []rpc.Row{profileRow(p)}, nil

	case rpc.CollectionSettings:
		st, err := s.repomanager.Settings(s.db).Get(ctx, caller)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
		return []rpc.Row{settingsRow(st)}, nil

	default:
		ws, err := s.repomanager.Websites(s.db).List(ctx, caller)
		if err != nil {
			return nil, fmt.Errorf("failed to read websites: %w", err)
		}
		rows := make([]rpc.Row, 0, len(ws))
		for _, w := range ws {
			rows = append(rows, websiteRow(w))
		}
		return rows, nil
	}
}

func (s *RecordService) readCatalog(ctx context.Context) ([]rpc.Row, error) {
	entries, err := s.repomanager.Catalog(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	rows := make([]rpc.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, catalogRow(e))
	}
	return rows, nil
}

func (s *RecordService) readTickets(ctx context.Context) ([]rpc.Row, error) {
	tickets, err := s.repomanager.Tickets(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read tickets: %w", err)
	}
	rows := make([]rpc.Row, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, ticketRow(t))
	}
	return rows, nil
}

// stamp fills the identity column of r with caller, rejecting rows that
// already name someone else.
func stamp(collection string, r rpc.Row, caller string) error {
	column, ok := rpc.IdentityScoped(collection)
	if !ok {
		return nil
	}
	if v, present := r[column]; present && v != nil && v != caller {
		return fmt.Errorf("%w: %s does not match caller", common.ErrorForbidden, column)
	}
	r[column] = caller
	return nil
}

// Upsert writes rows and returns how many were written. For user_websites
// the rows replace the caller's whole selection.
func (s *RecordService) Upsert(ctx context.Context, caller string, req rpc.UpsertRequest) (int64, error) {
	if err := checkCollection(req.Collection); err != nil {
		return 0, err
	}
	for _, r := range req.Rows {
		if err := checkColumns(req.Collection, r); err != nil {
			return 0, err
		}
	}

	switch req.Collection {
	case rpc.CollectionProfiles:
		return s.upsertProfiles(ctx, caller, req.Rows)
	case rpc.CollectionSettings:
		return s.upsertSettings(ctx, caller, req.Rows)
	case rpc.CollectionWebsites:
		return s.replaceWebsites(ctx, caller, req.Rows)
	case rpc.CollectionCatalog:
		return s.upsertCatalog(ctx, caller, req.Rows)
	default:
		return s.createTickets(ctx, caller, req.Rows)
	}
}

type profileWrite struct {
	profile    *models.Profile
	role       *string
	membership *bool
}

// upsertProfiles writes the owner-editable columns. Role and membership
// are applied only for admins; for everybody else they are ignored and
// the stored values survive. Admins may also write other profiles.
func (s *RecordService) upsertProfiles(ctx context.Context, caller string, rows []rpc.Row) (int64, error) {
	admin, err := s.isAdmin(ctx, caller)
	if err != nil {
		return 0, err
	}

	writes := make([]profileWrite, 0, len(rows))
	for _, r := range rows {
		if !admin {
			if err := stamp(rpc.CollectionProfiles, r, caller); err != nil {
				return 0, err
			}
		}
		p, role, membership, err := profileFromRow(r)
		if err != nil {
			return 0, err
		}
		if p.ID == "" {
			p.ID = caller
		}
		writes = append(writes, profileWrite{profile: p, role: role, membership: membership})
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Profiles(tx)
		for _, w := range writes {
			if err := repo.Upsert(ctx, w.profile); err != nil {
				return fmt.Errorf("failed to upsert profile: %w", err)
			}
			if !admin || (w.role == nil && w.membership == nil) {
				continue
			}
			current, err := repo.Get(ctx, w.profile.ID)
			if err != nil {
				return fmt.Errorf("failed to read profile: %w", err)
			}
			role, membership := current.Role, current.MembershipActive
			if w.role != nil {
				role = *w.role
			}
			if w.membership != nil {
				membership = *w.membership
			}
			if _, err := repo.UpdatePrivileges(ctx, w.profile.ID, role, membership); err != nil {
				return fmt.Errorf("failed to update privileges: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(len(writes)), nil
}

func (s *RecordService) upsertSettings(ctx context.Context, caller string, rows []rpc.Row) (int64, error) {
	if len(rows) > 1 {
		return 0, fmt.Errorf("%w: one settings row per user", common.ErrorValidation)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := stamp(rpc.CollectionSettings, rows[0], caller); err != nil {
		return 0, err
	}
	st, err := settingsFromRow(rows[0])
	if err != nil {
		return 0, err
	}
	if err := s.repomanager.Settings(s.db).Upsert(ctx, st); err != nil {
		return 0, fmt.Errorf("failed to upsert settings: %w", err)
	}
	return 1, nil
}

func (s *RecordService) replaceWebsites(ctx context.Context, caller string, rows []rpc.Row) (int64, error) {
	for _, r := range rows {
		if err := stamp(rpc.CollectionWebsites, r, caller); err != nil {
			return 0, err
		}
	}
	sites, err := websitesFromRows(rows)
	if err != nil {
		return 0, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Websites(tx)
		if _, err := repo.DeleteAll(ctx, caller); err != nil {
			return fmt.Errorf("failed to clear websites: %w", err)
		}
		for i := range sites {
			sites[i].UserID = caller
			if err := repo.Insert(ctx, &sites[i]); err != nil {
				return fmt.Errorf("failed to insert website: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(len(sites)), nil
}

func (s *RecordService) upsertCatalog(ctx context.Context, caller string, rows []rpc.Row) (int64, error) {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return 0, err
	}

	entries := make([]*models.CatalogEntry, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		e, err := catalogFromRow(r)
		if err != nil {
			return 0, err
		}
		if _, dup := seen[e.ID]; dup {
			return 0, fmt.Errorf("%w: duplicate id %q", common.ErrorValidation, e.ID)
		}
		seen[e.ID] = struct{}{}
		entries = append(entries, e)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Catalog(tx)
		for _, e := range entries {
			if err := repo.Upsert(ctx, e); err != nil {
				return fmt.Errorf("failed to upsert catalog entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "catalog updated", "identity", caller, "entries", len(entries))
	return int64(len(entries)), nil
}

func (s *RecordService) createTickets(ctx context.Context, caller string, rows []rpc.Row) (int64, error) {
	tickets := make([]*models.Ticket, 0, len(rows))
	for _, r := range rows {
		if err := stamp(rpc.CollectionTickets, r, caller); err != nil {
			return 0, err
		}
		t, err := ticketFromRow(r)
		if err != nil {
			return 0, err
		}
		t.FromUserID = caller
		tickets = append(tickets, t)
	}

	repo := s.repomanager.Tickets(s.db)
	var n int64
	for _, t := range tickets {
		if !s.tickets.allow(caller) {
			s.logger.Warn(ctx, "ticket rate limit hit", "identity", caller)
			return n, fmt.Errorf("%w: too many tickets, try again later", common.ErrRateLimited)
		}
		t.ID = s.newID()
		if _, err := repo.Create(ctx, t); err != nil {
			return n, fmt.Errorf("failed to create ticket: %w", err)
		}
		n++
	}
	return n, nil
}

// Delete removes rows matching the filter. Deleting a profile deletes the
// owner's settings and websites in the same transaction.
func (s *RecordService) Delete(ctx context.Context, caller string, req rpc.DeleteRequest) (int64, error) {
	if err := checkCollection(req.Collection); err != nil {
		return 0, err
	}
	if err := checkColumns(req.Collection, req.Filter); err != nil {
		return 0, err
	}

	switch req.Collection {
	case rpc.CollectionCatalog:
		return s.deleteByID(ctx, caller, req, s.repomanager.Catalog(s.db).Delete)
	case rpc.CollectionTickets:
		return s.deleteByID(ctx, caller, req, s.repomanager.Tickets(s.db).Delete)
	}

	rest, err := scope(req.Collection, req.Filter, caller)
	if err != nil {
		return 0, err
	}
	if len(rest) > 0 {
		return 0, fmt.Errorf("%w: %s deletes by owner only", common.ErrorValidation, req.Collection)
	}

	switch req.Collection {
	case rpc.CollectionProfiles:
		return s.deleteAccount(ctx, caller)
	case rpc.CollectionSettings:
		n, err := s.repomanager.Settings(s.db).Delete(ctx, caller)
		if err != nil {
			return 0, fmt.Errorf("failed to delete settings: %w", err)
		}
		return n, nil
	default:
		n, err := s.repomanager.Websites(s.db).DeleteAll(ctx, caller)
		if err != nil {
			return 0, fmt.Errorf("failed to delete websites: %w", err)
		}
		return n, nil
	}
}

func (s *RecordService) deleteByID(ctx context.Context, caller string, req rpc.DeleteRequest, del func(context.Context, string) (int64, error)) (int64, error) {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return 0, err
	}
	id, ok := req.Filter["id"].(string)
	if !ok || id == "" || len(req.Filter) != 1 {
		return 0, fmt.Errorf("%w: %s deletes by id only", common.ErrorValidation, req.Collection)
	}
	n, err := del(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", req.Collection, err)
	}
	return n, nil
}

func (s *RecordService) deleteAccount(ctx context.Context, caller string) (int64, error) {
	n, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (int64, error) {
		if _, err := s.repomanager.Websites(tx).DeleteAll(ctx, caller); err != nil {
			return 0, fmt.Errorf("failed to delete websites: %w", err)
		}
		if _, err := s.repomanager.Settings(tx).Delete(ctx, caller); err != nil {
			return 0, fmt.Errorf("failed to delete settings: %w", err)
		}
		n, err := s.repomanager.Profiles(tx).Delete(ctx, caller)
		if err != nil {
			return 0, fmt.Errorf("failed to delete profile: %w", err)
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "account deleted", "identity", caller)
	return n, nil
}
