package models

import "regexp"

// DefaultSettings is what a fresh install and every reset start from.
func DefaultSettings() Settings {
	return Settings{
		Theme:                ThemeSystem,
		NotificationsEnabled: true,
		PreloadMode:          PreloadOn,
		TwoFactorEnabled:     false,
	}
}

func DefaultProfile() Profile {
	return Profile{
		DisplayName: "Alex Taylor",
		Username:    "@atlist_user",
		Email:       "alex@example.com",
		AvatarLabel: "AT",
		AvatarColor: "#111827",
		Role:        RoleUser,
	}
}

var defaultSites = []string{
	"Amazon",
	"OfferUp",
	"Walmart",
	"Uber Eats",
	"DoorDash",
	"TaskRabbit",
	"Thumbtack",
	"Craigslist",
}

// DefaultSelection is the starter set of active sites, focused on the first.
func DefaultSelection() Selection {
	sites := make([]SelectionEntry, 0, len(defaultSites))
	for _, id := range defaultSites {
		sites = append(sites, SelectionEntry{SiteID: id})
	}
	return Selection{Sites: sites, Focused: defaultSites[0]}
}

// fallbackURLs keep the starter sites reachable before or without a catalog.
var fallbackURLs = map[string]string{
	"Amazon":     "https://www.amazon.com/",
	"OfferUp":    "https://offerup.com/",
	"Walmart":    "https://www.walmart.com/",
	"Uber Eats":  "https://www.ubereats.com/",
	"DoorDash":   "https://www.doordash.com/",
	"TaskRabbit": "https://www.taskrabbit.com/",
	"Thumbtack":  "https://www.thumbtack.com/",
	"Craigslist": "https://www.craigslist.org/",
}

func FallbackURL(siteID string) (string, bool) {
	u, ok := fallbackURLs[siteID]
	return u, ok
}

// freeSites can be activated without a membership.
var freeSites = map[string]struct{}{
	"Amazon":    {},
	"OfferUp":   {},
	"Uber Eats": {},
	"Thumbtack": {},
	"Airbnb":    {},
	"X":         {},
	"Indeed":    {},
}

func IsFreeSite(siteID string) bool {
	_, ok := freeSites[siteID]
	return ok
}

// ColorPalette is the set of swatches offered for site and avatar colors.
var ColorPalette = []string{
	"#111827",
	"#2563eb",
	"#16a34a",
	"#f59e0b",
	"#dc2626",
	"#7c3aed",
	"#0ea5e9",
	"#ea580c",
	"#64748b",
	"#e2e8f0",
}

var (
	hexColor   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	namedColor = regexp.MustCompile(`^[a-z]{3,20}$`)
)

// ValidColor accepts #rgb, #rrggbb and lowercase color names.
func ValidColor(c string) bool {
	return hexColor.MatchString(c) || namedColor.MatchString(c)
}
