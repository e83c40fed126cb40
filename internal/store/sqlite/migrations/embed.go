package migrations

import "embed"

// FS contains embedded SQLite migrations for weather record storage.
//
//go:embed *.sql
var FS embed.FS
