// Package db embeds the SQL schema shipped with the binary.
package db

import _ "embed"

// Schema is the full grocer DDL, applied idempotently at startup by
// repository.RunMigrations.
//
//go:embed migrations/001_schema.sql
var Schema string
