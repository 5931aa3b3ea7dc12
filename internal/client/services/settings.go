package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/client/prefsync"
	"github.com/dmitrijs2005/atlist/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/atlist/internal/common"
)

// SettingsRemote is the record-store side of the settings record.
type SettingsRemote interface {
	LoadSettings(ctx context.Context, id models.Identity) (models.SettingsPatch, error)
	SaveSettings(ctx context.Context, id models.Identity, v models.Settings) error
	DeleteSettings(ctx context.Context, id models.Identity) error
}

type SettingsService struct {
	*prefsync.Synchronizer[models.Settings, models.SettingsPatch]
}

func NewSettingsService(deps prefsync.Deps, remote SettingsRemote) *SettingsService {
	return &SettingsService{
		Synchronizer: prefsync.New(deps, prefsync.Binding[models.Settings, models.SettingsPatch]{
			Kind:     localstore.KindSettings,
			Defaults: models.DefaultSettings,
			Load:     remote.LoadSettings,
			Save:     remote.SaveSettings,
			Clear:    remote.DeleteSettings,
		}),
	}
}

func (s *SettingsService) SetTheme(ctx context.Context, t models.Theme) (models.Settings, error) {
	if !t.Valid() {
		return s.Current(), fmt.Errorf("%w: theme must be light, dark or system", common.ErrorValidation)
	}
	return s.Mutate(ctx, models.SettingsPatch{Theme: &t}), nil
}

func (s *SettingsService) SetNotifications(ctx context.Context, enabled bool) models.Settings {
	return s.Mutate(ctx, models.SettingsPatch{NotificationsEnabled: &enabled})
}

func (s *SettingsService) SetPreload(ctx context.Context, mode models.PreloadMode) (models.Settings, error) {
	if !mode.Valid() {
		return s.Current(), fmt.Errorf("%w: preload must be on or off", common.ErrorValidation)
	}
	return s.Mutate(ctx, models.SettingsPatch{PreloadMode: &mode}), nil
}

func (s *SettingsService) SetTwoFactor(ctx context.Context, enabled bool) models.Settings {
	return s.Mutate(ctx, models.SettingsPatch{TwoFactorEnabled: &enabled})
}
