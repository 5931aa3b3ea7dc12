package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/atlist/internal/common"
)

type TicketCategory string

const (
	TicketBug     TicketCategory = "bug"
	TicketFeature TicketCategory = "feature"
	TicketSupport TicketCategory = "support"
)

var TicketCategories = []TicketCategory{TicketBug, TicketFeature, TicketSupport}

func (c TicketCategory) Valid() bool {
	for _, v := range TicketCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Ticket is a support request. Replies arrive out of band.
type Ticket struct {
	ID        string
	Category  TicketCategory
	Subject   string
	Body      string
	Email     string
	Status    string
	CreatedAt time.Time
}

func (t Ticket) Validate() error {
	if t.Category == "" {
		return fmt.Errorf("%w: category is required", common.ErrorValidation)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", common.ErrorValidation, t.Category)
	}
	if strings.TrimSpace(t.Body) == "" {
		return fmt.Errorf("%w: body is required", common.ErrorValidation)
	}
	return nil
}
