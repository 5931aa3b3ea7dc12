package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/client/prefsync"
	"github.com/dmitrijs2005/atlist/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/atlist/internal/common"
)

type ProfileRemote interface {
	LoadProfile(ctx context.Context, id models.Identity) (models.ProfilePatch, error)
	SaveProfile(ctx context.Context, id models.Identity, v models.Profile) error
	DeleteProfile(ctx context.Context, id models.Identity) error
}

type ProfileService struct {
	*prefsync.Synchronizer[models.Profile, models.ProfilePatch]
}

func NewProfileService(deps prefsync.Deps, remote ProfileRemote) *ProfileService {
	return &ProfileService{
		Synchronizer: prefsync.New(deps, prefsync.Binding[models.Profile, models.ProfilePatch]{
			Kind:     localstore.KindProfile,
			Defaults: models.DefaultProfile,
			Load:     remote.LoadProfile,
			Save:     remote.SaveProfile,
			Clear:    remote.DeleteProfile,
			SameRemote: func(a, b models.Profile) bool {
				a.Role, b.Role = "", ""
				a.MembershipActive, b.MembershipActive = false, false
				return a == b
			},
		}),
	}
}

// Update applies the editable fields of p. Role and membership are owned
// by the record store and silently dropped.
func (s *ProfileService) Update(ctx context.Context, p models.ProfilePatch) (models.Profile, error) {
	p = p.Editable()
	if err := p.Validate(); err != nil {
		return s.Current(), fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return s.Mutate(ctx, p), nil
}

// IsAdmin drives what the UI shows. The record store enforces the real
// permission.
func (s *ProfileService) IsAdmin() bool {
	return s.Current().IsAdmin()
}

func (s *ProfileService) HasMembership() bool {
	return s.Current().MembershipActive
}
