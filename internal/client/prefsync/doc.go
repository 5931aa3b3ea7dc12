// Package prefsync keeps one per-identity record (settings, profile or site
// selection) consistent across memory, the local store and the record
// store.
//
// A Synchronizer owns the in-memory value that the UI reads. The local
// store and the record store are replicas of it.
//
// Hydrate runs on every identity change: it reads the local copy, reads the
// remote copy when signed in, merges them as defaults < local < remote,
// writes the result back to both replicas and publishes it.
//
// Mutate and Update publish immediately, write the local replica
// synchronously and mirror to the record store in the background. Remote
// failures are logged and dropped; the local value stays authoritative.
//
// Reset publishes defaults, stores them locally and deletes the remote row.
//
// Every operation takes a sequence number from a per-kind counter. A
// hydrate result older than the published value is discarded, and a
// replica write older than the last applied one is skipped, so a slow
// superseded call can no longer clobber a newer one.
package prefsync
