// Package models defines the records the device keeps in sync with the
// record store: settings, profile, website selection, plus the catalog
// entries and support tickets that surround them.
//
// Each synced record type T comes with a patch type P whose fields are all
// optional. T.Apply(P) overlays every non-nil field of the patch, which is
// the building block of the merge rule (defaults, then local, then remote).
// Local JSON is decoded straight into the patch type so that a field missing
// from an old stored copy stays nil instead of becoming a zero value.
package models
