package db

import "embed"

// EmbedMigrations holds the metastore migrations.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
