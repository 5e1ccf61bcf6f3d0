// Package migrations embeds the goose schema migrations for the vault
// store. Each supported engine has its own migration set; the repository
// manager selects the subdirectory matching the configured dialect.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS
