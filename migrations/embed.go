// Package migrations embeds the SQL schema so tests, the server and the CLI
// apply the same files in lexical order.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
