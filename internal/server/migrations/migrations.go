// Package migrations embeds the goose SQL migrations. The statements are
// kept to the dialect shared by PostgreSQL and SQLite.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
