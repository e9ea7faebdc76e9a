// Package systems embeds the bundled fuzzy system definitions.
//
// Usage:
//
//	def, err := definition.LoadFS(systems.FS, "pecas")
package systems

import "embed"

//go:embed *.yaml *.toml
var FS embed.FS
