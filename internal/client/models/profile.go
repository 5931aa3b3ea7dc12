package models

import (
	"fmt"

	"github.com/dmitrijs2005/atlist/internal/common"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// Profile is the user's public profile. Role and MembershipActive are owned
// by the record store; the device reads them but never writes them.
type Profile struct {
	DisplayName      string `json:"fullName"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	AvatarLabel      string `json:"avatarText,omitempty"`
	AvatarColor      string `json:"avatarColor,omitempty"`
	Role             Role   `json:"role"`
	MembershipActive bool   `json:"membershipActive"`
}

type ProfilePatch struct {
	DisplayName      *string `json:"fullName,omitempty"`
	Username         *string `json:"username,omitempty"`
	Email            *string `json:"email,omitempty"`
	AvatarLabel      *string `json:"avatarText,omitempty"`
	AvatarColor      *string `json:"avatarColor,omitempty"`
	Role             *Role   `json:"role,omitempty"`
	MembershipActive *bool   `json:"membershipActive,omitempty"`
}

func (p Profile) Apply(patch ProfilePatch) Profile {
	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	if patch.Username != nil {
		p.Username = *patch.Username
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.AvatarLabel != nil {
		p.AvatarLabel = *patch.AvatarLabel
	}
	if patch.AvatarColor != nil {
		p.AvatarColor = *patch.AvatarColor
	}
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	if patch.MembershipActive != nil {
		p.MembershipActive = *patch.MembershipActive
	}
	return p
}

func (p Profile) IsAdmin() bool { return p.Role == RoleAdmin }

// Editable drops the store-owned fields from a patch.
func (patch ProfilePatch) Editable() ProfilePatch {
	patch.Role = nil
	patch.MembershipActive = nil
	return patch
}

func (patch ProfilePatch) Validate() error {
	if patch.Role != nil && !patch.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", common.ErrMalformedRecord, *patch.Role)
	}
	if patch.AvatarColor != nil && *patch.AvatarColor != "" && !ValidColor(*patch.AvatarColor) {
		return fmt.Errorf("%w: bad avatar color %q", common.ErrMalformedRecord, *patch.AvatarColor)
	}
	return nil
}
