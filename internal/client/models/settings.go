package models

import (
	"fmt"

	"github.com/dmitrijs2005/atlist/internal/common"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

type PreloadMode string

const (
	PreloadOn  PreloadMode = "on"
	PreloadOff PreloadMode = "off"
)

func (m PreloadMode) Valid() bool { return m == PreloadOn || m == PreloadOff }

// PreloadModeFromBool maps the stored preload_enabled column.
func PreloadModeFromBool(enabled bool) PreloadMode {
	if enabled {
		return PreloadOn
	}
	return PreloadOff
}

type Settings struct {
	Theme                Theme       `json:"theme"`
	NotificationsEnabled bool        `json:"notificationsEnabled"`
	PreloadMode          PreloadMode `json:"preloadMode"`
	TwoFactorEnabled     bool        `json:"twoFactorEnabled"`
}

type SettingsPatch struct {
	Theme                *Theme       `json:"theme,omitempty"`
	NotificationsEnabled *bool        `json:"notificationsEnabled,omitempty"`
	PreloadMode          *PreloadMode `json:"preloadMode,omitempty"`
	TwoFactorEnabled     *bool        `json:"twoFactorEnabled,omitempty"`
}

func (s Settings) Apply(p SettingsPatch) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.PreloadMode != nil {
		s.PreloadMode = *p.PreloadMode
	}
	if p.TwoFactorEnabled != nil {
		s.TwoFactorEnabled = *p.TwoFactorEnabled
	}
	return s
}

// Patch returns a patch that sets every field of s.
func (s Settings) Patch() SettingsPatch {
	return SettingsPatch{
		Theme:                &s.Theme,
		NotificationsEnabled: &s.NotificationsEnabled,
		PreloadMode:          &s.PreloadMode,
		TwoFactorEnabled:     &s.TwoFactorEnabled,
	}
}

func (p SettingsPatch) Validate() error {
	if p.Theme != nil && !p.Theme.Valid() {
		return fmt.Errorf("%w: unknown theme %q", common.ErrMalformedRecord, *p.Theme)
	}
	if p.PreloadMode != nil && !p.PreloadMode.Valid() {
		return fmt.Errorf("%w: unknown preload mode %q", common.ErrMalformedRecord, *p.PreloadMode)
	}
	return nil
}
