package localstore

import "github.com/dmitrijs2005/atlist/internal/client/models"

// Kind names a synced record type. The values double as storage keys.
type Kind string

const (
	KindProfile   Kind = "profile_state"
	KindSettings  Kind = "settings_state"
	KindSelection Kind = "websites_state"
)

var Kinds = []Kind{KindProfile, KindSettings, KindSelection}

// SessionKey holds the current access token.
const SessionKey = "session"

// Key returns the storage key of kind for identity: the bare kind when
// anonymous, "<kind>_<identity>" otherwise.
func Key(kind Kind, identity models.Identity) string {
	if identity.IsAnonymous() {
		return string(kind)
	}
	return string(kind) + "_" + string(identity)
}
