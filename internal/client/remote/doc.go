// Package remote is the typed boundary in front of the record store.
//
// Every row read from the store is decoded and validated here into the
// models types; callers never see rpc.Row. A row with a wrong field type,
// an unknown enum value or a missing key field is reported as
// common.ErrMalformedRecord for per-identity records and skipped (with a
// warning) in catalog listings. Load* methods return common.ErrorNotFound
// when the identity has no row yet.
//
// The returned patches carry only the fields that are non-null in the
// store, which is exactly the remote side of the merge rule.
package remote
