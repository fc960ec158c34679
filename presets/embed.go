package presets

import (
	"embed"
)

// FS provides embedded default preset YAMLs for external usage.
//
//go:embed *.yaml
var FS embed.FS
