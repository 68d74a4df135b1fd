// Package migrations embeds the SQL schema for the lead store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
