package migrations

import "embed"

// FS contains embedded SQLite migrations for tournament results.
//
//go:embed *.sql
var FS embed.FS
