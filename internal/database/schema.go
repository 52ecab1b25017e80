package database

import _ "embed"

// Schema is the flattened result of all migrations, used by tests to set up
// in-memory stores without running the migrator.
//
//go:embed sqlc/schema.sql
var Schema string
