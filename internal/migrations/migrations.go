// Package migrations embeds the goose migrations that create the tokens
// table. Each supported dialect has its own sub-directory.
package migrations

import "embed"

//go:embed mysql/*.sql postgres/*.sql sqlite/*.sql
var Migrations embed.FS
