// Package migrations embeds the SQL schema migrations so a deployed binary
// carries its own schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
