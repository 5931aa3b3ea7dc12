// Package cli provides the Atlist command-line client.
//
// It wires configuration, the local SQLite replica, the record store
// client, the catalog cache and the per-kind synchronizers into an App, and
// exposes the App through a cobra command tree. Every command can run
// one-shot (atlist sites list) or inside the interactive shell started by
// `atlist shell`, which keeps the App alive between commands.
//
// Startup restores the stored session, hydrates profile, settings and
// selection for that identity, and loads the catalog. Remote writes run in
// the background and are drained before the process exits.
package cli
