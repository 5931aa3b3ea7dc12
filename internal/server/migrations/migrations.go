// Package migrations embeds the goose migrations of the record store's
// Postgres schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
