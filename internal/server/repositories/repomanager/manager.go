package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/atlist/internal/dbx"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/settings"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/tickets"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/websites"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// constructors serve plain connections and transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Profiles(db dbx.DBTX) profiles.Repository
	Settings(db dbx.DBTX) settings.Repository
	Websites(db dbx.DBTX) websites.Repository
	Catalog(db dbx.DBTX) catalog.Repository
	Tickets(db dbx.DBTX) tickets.Repository
}
