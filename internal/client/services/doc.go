// Package services contains the application services of the Atlist client.
//
// SettingsService, ProfileService and WebsitesService each wrap a
// prefsync.Synchronizer for one record kind and add the operations the UI
// needs on top of hydrate/mutate/reset. AuthService owns the session token
// and drives re-hydration on identity changes. SupportService submits
// support tickets.
//
// Service methods never fail for expected conditions (missing rows, an
// unresolvable catalog id, an empty selection). Errors are returned only for
// invalid user input, which the UI shows inline.
package services
