// Package migrations embeds the PriceKeeper schema for each supported driver.
package migrations

import "embed"

// SqliteMigrations holds the SQLite schema, used for development and tests.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

// PostgresMigrations holds the PostgreSQL schema used in production.
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS
