// Package embedded carries the default ship catalog and override table
// compiled into the binary, so a run works without any external catalog.
package embedded

import (
	"embed"
)

// FS embeds the default catalog files.
//
//go:embed catalog/*.yaml
var FS embed.FS

// File names inside FS.
const (
	CatalogFile   = "catalog/ships.yaml"
	OverridesFile = "catalog/overrides.yaml"
)
