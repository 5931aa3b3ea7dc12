package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/common"
)

// TicketSink is the write-only end of the support_tickets collection.
type TicketSink interface {
	CreateTicket(ctx context.Context, id models.Identity, t models.Ticket) error
}

type SupportService struct {
	sink     TicketSink
	identity func() models.Identity
	profile  func() models.Profile
}

func NewSupportService(sink TicketSink, identity func() models.Identity, profile func() models.Profile) *SupportService {
	return &SupportService{sink: sink, identity: identity, profile: profile}
}

// Submit validates t and files it for the signed-in user. The reporter
// email defaults to the profile email.
func (s *SupportService) Submit(ctx context.Context, t models.Ticket) error {
	if err := t.Validate(); err != nil {
		return err
	}
	id := s.identity()
	if id.IsAnonymous() {
		return fmt.Errorf("%w: sign in to contact support", common.ErrorUnauthorized)
	}
	if t.Email == "" && s.profile != nil {
		t.Email = s.profile().Email
	}
	if err := s.sink.CreateTicket(ctx, id, t); err != nil {
		return fmt.Errorf("failed to submit ticket: %w", err)
	}
	return nil
}
