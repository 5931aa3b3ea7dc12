package models

import "time"

type Settings struct {
	UserID               string
	Theme                *string
	NotificationsEnabled *bool
	PreloadEnabled       *bool
	TwoFactorEnabled     *bool
	UpdatedAt            time.Time
}
