package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/atlist/internal/common"
)

// UserWebsite is one site of a user's selection. Position orders the
// selection; it is dense from zero after every replace.
type UserWebsite struct {
	UserID      string
	WebsiteID   string
	Position    int64
	CustomColor *string
}

type CatalogEntry struct {
	ID       string
	Name     string
	Category *string
	URL      string
}

// Validate checks the columns an admin write must carry: a trimmed id, a
// name and an absolute http(s) URL.
func (e *CatalogEntry) Validate() error {
	if e.ID == "" || strings.TrimSpace(e.ID) != e.ID {
		return fmt.Errorf("%w: catalog id %q", common.ErrorValidation, e.ID)
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: catalog entry %q has no name", common.ErrorValidation, e.ID)
	}
	u, err := url.Parse(e.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: catalog entry %q has invalid url %q", common.ErrorValidation, e.ID, e.URL)
	}
	return nil
}
