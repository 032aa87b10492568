// Package migrations expone los scripts SQL del esquema para postgres.Migrate.
package migrations

import "embed"

// FS scripts NNN_nombre.sql, aplicados en orden lexicográfico.
//
//go:embed *.sql
var FS embed.FS
