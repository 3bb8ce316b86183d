// Package migrations embeds the PostgreSQL schema applied by golang-migrate.
package migrations

import "embed"

// Files holds the numbered up/down migrations at the root of the FS.
//
//go:embed *.sql
var Files embed.FS
