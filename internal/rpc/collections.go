package rpc

// Collection names as stored by the backend.
const (
	CollectionProfiles = "profiles"
	CollectionSettings = "user_settings"
	CollectionWebsites = "user_websites"
	CollectionCatalog  = "website_catalog"
	CollectionTickets  = "support_tickets"
)

// Collections lists every collection the store serves.
var Collections = []string{
	CollectionProfiles,
	CollectionSettings,
	CollectionWebsites,
	CollectionCatalog,
	CollectionTickets,
}

// IdentityScoped reports whether rows of the collection belong to one
// identity, and returns the column carrying it.
func IdentityScoped(collection string) (column string, ok bool) {
	switch collection {
	case CollectionProfiles:
		return "id", true
	case CollectionSettings, CollectionWebsites:
		return "user_id", true
	case CollectionTickets:
		return "from_user_id", true
	default:
		return "", false
	}
}

// KnownCollection reports whether name is served by the store.
func KnownCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}
