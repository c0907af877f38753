package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

const (
	// Name is the command name. It appears in help text and in the default
	// configuration and cache paths.
	Name = "tryparse"
	// Description is a short summary of the command used in help output.
	Description = "Parse and inspect tryouts test files"
)

// Version returns the semantic version embedded at build time.
func Version() string {
	return strings.TrimSpace(version)
}
