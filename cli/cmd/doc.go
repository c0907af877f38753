// Package cmd implements the tryparse subcommands.
//
// Each command is a kong command struct whose Run method receives a
// [context.Context] built by the cli package. The context carries the kong
// context ([WithContext]), the parse directives ([WithDirectives]) and,
// in tests, a replacement output writer ([WithOutput]).
//
// Commands that accept several sources read each file once, in the order
// given, and read standard input last.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
